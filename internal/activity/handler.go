package activity

import (
	"fmt"
	"net/http"

	"github.com/AksiHijau/green-action-backend/internal/platform/storage"
	"github.com/AksiHijau/green-action-backend/internal/profile"
	"github.com/gin-gonic/gin"
)

// photoUploader 是活动照片的对象存储实现，由main在启动时注入。
var photoUploader storage.Uploader = storage.NopUploader{}

// ConfigureModule 注入activity模块的外部依赖。
func ConfigureModule(uploader storage.Uploader) {
	if uploader != nil {
		photoUploader = uploader
	}
}

// --- API 请求/响应模型 ---

// CreateActivityRequestBody 定义了提交活动的请求体。
// 支持JSON与multipart表单两种提交方式，后者可附带图片文件。
type CreateActivityRequestBody struct {
	CategoryID string `form:"categoryId" json:"categoryId" binding:"required"`
	Title      string `form:"title" json:"title" binding:"required"`
	Points     int    `form:"points" json:"points" binding:"required,gt=0"`
	Province   string `form:"province" json:"province"`
	Location   string `form:"location" json:"location"`
}

// UpdateActivityRequestBody 定义了编辑活动的请求体。
// 只允许编辑标题、地点与图片；积分与状态不可经此修改。
type UpdateActivityRequestBody struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	ImageURL string `json:"imageUrl"`
}

// ReviewActivityRequestBody 定义了审核活动的请求体。
type ReviewActivityRequestBody struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ActivityResponse 是活动接口的API响应模型。
type ActivityResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
	Points     int    `json:"points"`
	Province   string `json:"province"`
	Location   string `json:"location"`
	ImageURL   string `json:"imageUrl"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

func formatActivity(a Activity) ActivityResponse {
	return ActivityResponse{
		ID:         a.ActivityID,
		UserID:     a.UserUUID,
		CategoryID: a.CategoryID,
		Title:      a.Title,
		Points:     a.Points,
		Province:   a.Province,
		Location:   a.Location,
		ImageURL:   a.ImageURL,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// --- 控制器函数 ---

// SubmitActivity 处理新活动的提交。
// 校验先行：请求体不合法时在任何存储交互之前被拒绝，绝不部分应用。
func SubmitActivity(c *gin.Context) {
	userID := c.GetString(profile.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少用户身份"})
		return
	}

	var body CreateActivityRequestBody
	if err := c.ShouldBind(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	// 首次提交即激活用户档案
	if err := profile.ActivateUser(userID, body.Province); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "激活用户失败"})
		return
	}

	// 省份快照：请求未携带时沿用档案上的省份
	snapshotProvince := body.Province
	if snapshotProvince == "" {
		if p, err := profile.GetProfile(userID); err == nil && p != nil {
			snapshotProvince = p.Province
		}
	}

	a, err := CreateActivity(CreateActivityInput{
		UserUUID:   userID,
		CategoryID: body.CategoryID,
		Title:      body.Title,
		Points:     body.Points,
		Province:   snapshotProvince,
		Location:   body.Location,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建活动失败"})
		return
	}

	// 图片上传在记录创建之后进行，失败不回滚活动本身
	if file, err := c.FormFile("image"); err == nil && file != nil {
		f, err := file.Open()
		if err == nil {
			defer f.Close()
			if url, uerr := photoUploader.UploadActivityPhoto(c.Request.Context(), f, a.ActivityID); uerr == nil && url != "" {
				_ = UpdateActivityFields(a, "", "", url)
				a.ImageURL = url
			} else if uerr != nil {
				fmt.Printf("警告: 活动 %s 的照片上传失败: %v\n", a.ActivityID, uerr)
			}
		}
	}

	c.JSON(http.StatusCreated, gin.H{"data": formatActivity(*a), "success": true})
}

// ListMyActivities 返回当前用户的活动列表。
func ListMyActivities(c *gin.Context) {
	userID := c.GetString(profile.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少用户身份"})
		return
	}

	list, err := ListActivitiesByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取活动列表失败"})
		return
	}

	responses := make([]ActivityResponse, 0, len(list))
	for _, a := range list {
		responses = append(responses, formatActivity(a))
	}
	c.JSON(http.StatusOK, gin.H{"data": responses})
}

// UpdateActivity 编辑一条活动（仅限所有者）。
func UpdateActivity(c *gin.Context) {
	userID := c.GetString(profile.UserIDKey)
	activityID := c.Param("id")

	a, err := GetActivityByID(activityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取活动失败"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("找不到ID为 %s 的活动", activityID)})
		return
	}
	if a.UserUUID != userID || userID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "只有所有者可以编辑活动"})
		return
	}

	var body UpdateActivityRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	if err := UpdateActivityFields(a, body.Title, body.Location, body.ImageURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新活动失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": formatActivity(*a), "success": true})
}

// RemoveActivity 删除一条活动（仅限所有者）。
func RemoveActivity(c *gin.Context) {
	userID := c.GetString(profile.UserIDKey)
	activityID := c.Param("id")

	a, err := GetActivityByID(activityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取活动失败"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("找不到ID为 %s 的活动", activityID)})
		return
	}
	if a.UserUUID != userID || userID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "只有所有者可以删除活动"})
		return
	}

	if err := DeleteActivity(a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除活动失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReviewActivityHandler 审核一条pending活动。
func ReviewActivityHandler(c *gin.Context) {
	activityID := c.Param("id")

	var body ReviewActivityRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	a, err := GetActivityByID(activityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取活动失败"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("找不到ID为 %s 的活动", activityID)})
		return
	}

	if err := ReviewActivity(a, *body.Approve); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": formatActivity(*a), "success": true})
}
