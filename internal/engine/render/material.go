package render

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/skelanim/internal/logger"
	"github.com/Faultbox/skelanim/pkg/gltfscene"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// Material is a GL-backed scene.Material: a base color tint plus an
// optional diffuse texture uploaded at import time.
type Material struct {
	renderer *Renderer
	name     string
	color    [4]float32
	tex      uint32
}

// HasTexture reports whether a diffuse texture was uploaded.
func (m *Material) HasTexture() bool {
	return m.tex != 0
}

// BindTexture stages the material for the next draw. Only the diffuse slot
// is wired to the shader.
func (m *Material) BindTexture(slot scene.TextureSlot, id int) {
	if slot != scene.TextureDiffuse {
		return
	}
	m.renderer.bindDiffuse(m.tex, m.color)
}

// MaterialFactory returns the factory the glTF importer calls per material.
// Textures are uploaded immediately; the GL context must be current.
func (r *Renderer) MaterialFactory() gltfscene.MaterialFactory {
	return func(info gltfscene.MaterialInfo) scene.Material {
		m := &Material{
			renderer: r,
			name:     info.Name,
			color:    info.BaseColor,
		}
		if info.Diffuse != nil {
			m.tex = r.uploadTexture(info.Diffuse)
		}
		return m
	}
}

// uploadTexture pushes a decoded RGBA image to the GPU.
func (r *Renderer) uploadTexture(img *gltfscene.TextureImage) uint32 {
	if img.Width == 0 || img.Height == 0 || len(img.Pixels) < img.Width*img.Height*4 {
		return 0
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(
		gl.TEXTURE_2D, 0, gl.RGBA,
		int32(img.Width), int32(img.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pixels),
	)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	logger.Debug("texture uploaded",
		zap.String("name", img.Name),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
	)
	return tex
}
