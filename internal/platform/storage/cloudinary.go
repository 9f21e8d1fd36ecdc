package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/AksiHijau/green-action-backend/internal/platform/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader 将活动照片上传到Cloudinary。
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader 根据配置创建Cloudinary客户端。
func NewCloudinaryUploader(cfg config.StorageConfig) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary配置不完整")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("无法初始化cloudinary: %w", err)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "greenaction/activities"
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

// UploadActivityPhoto 上传活动照片，按activityID覆盖写，返回安全URL。
func (u *CloudinaryUploader) UploadActivityPhoto(ctx context.Context, file io.Reader, activityID string) (string, error) {
	overwrite := true
	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       fmt.Sprintf("activities/%s", activityID),
		Folder:         u.folder,
		Overwrite:      &overwrite,
		ResourceType:   "image",
		Transformation: "c_limit,h_1200,w_1600",
	})
	if err != nil {
		return "", fmt.Errorf("上传活动照片失败: %w", err)
	}
	return result.SecureURL, nil
}
