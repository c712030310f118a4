// Package vips 基于 libvips 的缩略图渲染器，需要 CGO
package vips

import (
	"fmt"
	"log"
	"sync"

	imagepkg "github.com/anoixa/files-manager/internal/image"
	"github.com/davidbyttow/govips/v2/vips"
)

var startupOnce sync.Once

// Renderer govips 渲染器
type Renderer struct{}

// NewRenderer 初始化 libvips（进程内只初始化一次）
func NewRenderer() *Renderer {
	startupOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: 1,
		})
		log.Println("[Vips] libvips started")
	})
	return &Renderer{}
}

func (r *Renderer) Name() string {
	return "vips"
}

// Thumbnail 缩放并以原格式导出，原图不大于目标宽度时不放大
func (r *Renderer) Thumbnail(src []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, imagepkg.ErrInvalidWidth
	}

	img, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	defer img.Close()

	w, h := imagepkg.TargetSize(img.Width(), img.Height(), width)
	if w != img.Width() {
		if err := img.Thumbnail(w, h, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("failed to thumbnail image: %w", err)
		}
	}

	out, _, err := img.ExportNative()
	if err != nil {
		return nil, fmt.Errorf("failed to export thumbnail: %w", err)
	}
	return out, nil
}

// Shutdown 释放 libvips
func Shutdown() {
	vips.Shutdown()
}

var _ imagepkg.Renderer = (*Renderer)(nil)
