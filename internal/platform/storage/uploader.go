package storage

import (
	"context"
	"io"
)

// Uploader 是图片对象存储的抽象边界。
// 核心逻辑只依赖这个接口；Cloudinary实现与测试用的本地实现都满足它。
type Uploader interface {
	// UploadActivityPhoto 上传一张活动照片并返回可公开访问的URL。
	UploadActivityPhoto(ctx context.Context, file io.Reader, activityID string) (string, error)
}

// NopUploader 是不做任何上传的实现，用于测试和未配置对象存储的环境。
type NopUploader struct{}

func (NopUploader) UploadActivityPhoto(ctx context.Context, file io.Reader, activityID string) (string, error) {
	return "", nil
}
