package gltfscene

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp" // BMP decoder registration

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/skelanim/pkg/scene"
)

// TextureImage is a decoded base-color texture, RGBA8 row-major.
type TextureImage struct {
	Name          string
	Width, Height int
	Pixels        []byte
}

// MaterialInfo is what the importer knows about one glTF material. Diffuse
// is nil when the material has no base-color texture or it failed to load.
type MaterialInfo struct {
	Name      string
	BaseColor [4]float32
	Diffuse   *TextureImage
}

// MaterialFactory turns a MaterialInfo into whatever scene.Material the
// caller renders with. The GL renderer uploads the texture here; headless
// tools return scene.Untextured.
type MaterialFactory func(info MaterialInfo) scene.Material

// makeMaterial builds the scene.Material for one glTF material. gm may be
// nil for the synthesized default material of primitives without one.
func makeMaterial(doc *gltf.Document, dir string, gm *gltf.Material, factory MaterialFactory) scene.Material {
	info := MaterialInfo{BaseColor: [4]float32{1, 1, 1, 1}}
	if gm != nil {
		info.Name = gm.Name
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			info.BaseColor = [4]float32{
				float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3]),
			}
			if pbr.BaseColorTexture != nil {
				info.Diffuse = loadTextureImage(doc, dir, pbr.BaseColorTexture.Index)
			}
		}
	}

	if factory == nil {
		return scene.Untextured{}
	}
	return factory(info)
}

// loadTextureImage fetches and decodes one texture's image. Failures
// degrade to an untextured material rather than failing the whole import.
func loadTextureImage(doc *gltf.Document, dir string, texIdx int) *TextureImage {
	if texIdx < 0 || texIdx >= len(doc.Textures) {
		return nil
	}
	gt := doc.Textures[texIdx]
	if gt.Source == nil || *gt.Source >= len(doc.Images) {
		return nil
	}
	img := doc.Images[*gt.Source]

	var raw []byte
	switch {
	case img.BufferView != nil:
		// Binary GLB: pixel data lives in a buffer view.
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil
		}
		raw = data
	case img.URI != "" && !img.IsEmbeddedResource():
		data, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil
		}
		raw = data
	default:
		return nil
	}

	name := img.Name
	if name == "" {
		name = fmt.Sprintf("image_%d", *gt.Source)
	}
	return decodeTextureImage(name, raw)
}

func decodeTextureImage(name string, data []byte) *TextureImage {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	return &TextureImage{
		Name:   name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}
}
