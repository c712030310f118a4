// Package image 缩略图渲染
package image

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	// 额外的解码格式
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrInvalidWidth 目标宽度非法
var ErrInvalidWidth = errors.New("thumbnail width must be positive")

// Renderer 把原图缩放到指定宽度，保持宽高比
type Renderer interface {
	Thumbnail(src []byte, width int) ([]byte, error)
	Name() string
}

// DrawRenderer 纯 Go 实现，基于 golang.org/x/image/draw
type DrawRenderer struct {
	scaler      draw.Scaler
	jpegQuality int
}

// NewDrawRenderer 创建默认渲染器
func NewDrawRenderer() *DrawRenderer {
	return &DrawRenderer{
		scaler:      draw.CatmullRom,
		jpegQuality: 85,
	}
}

func (r *DrawRenderer) Name() string {
	return "draw"
}

// Thumbnail 原图宽度不超过目标宽度时不放大，只按原尺寸重新编码
func (r *DrawRenderer) Thumbnail(src []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, ErrInvalidWidth
	}

	img, format, err := stdimage.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := TargetSize(bounds.Dx(), bounds.Dy(), width)

	out := img
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
		r.scaler.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: r.jpegQuality})
	case "gif":
		err = gif.Encode(&buf, out, nil)
	default:
		// png 以及没有编码器的格式（webp, bmp）
		err = png.Encode(&buf, out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s thumbnail: %w", format, err)
	}
	return buf.Bytes(), nil
}

// TargetSize 计算缩放后的尺寸，不放大，高度至少为 1
func TargetSize(srcWidth, srcHeight, width int) (int, int) {
	if srcWidth <= 0 || srcHeight <= 0 || srcWidth <= width {
		return srcWidth, srcHeight
	}
	h := srcHeight * width / srcWidth
	if h < 1 {
		h = 1
	}
	return width, h
}

var _ Renderer = (*DrawRenderer)(nil)
