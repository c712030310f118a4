package cmd

import (
	"fmt"
	"log"

	imagepkg "github.com/anoixa/files-manager/internal/image"
	"github.com/anoixa/files-manager/internal/image/vips"
)

// newRenderer 按配置选择缩略图渲染器，返回的函数用于释放渲染器资源
func newRenderer(name string) (imagepkg.Renderer, func(), error) {
	switch name {
	case "", "draw":
		return imagepkg.NewDrawRenderer(), func() {}, nil
	case "vips":
		log.Println("[Worker] Using libvips renderer")
		return vips.NewRenderer(), vips.Shutdown, nil
	default:
		return nil, nil, fmt.Errorf("unsupported thumbnail renderer: %s", name)
	}
}
