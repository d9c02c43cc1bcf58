// Package render is the OpenGL drawing adapter: it owns the shader program
// and vertex buffers and submits posed geometry streamed from the animation
// runtime each frame.
package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/skelanim/internal/engine/shader"
	"github.com/Faultbox/skelanim/internal/logger"
	"github.com/Faultbox/skelanim/pkg/math"
)

const vertexShaderSrc = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 projection;
uniform mat4 view;
uniform mat4 model;

out vec3 vNormal;
out vec2 vUV;

void main() {
	gl_Position = projection * view * model * vec4(aPos, 1.0);
	vNormal = mat3(model) * aNormal;
	vUV = aUV;
}
`

const fragmentShaderSrc = `
#version 410 core

in vec3 vNormal;
in vec2 vUV;

uniform sampler2D diffuse;
uniform vec4 baseColor;

out vec4 fragColor;

void main() {
	vec3 n = normalize(vNormal);
	vec3 lightDir = normalize(vec3(0.4, 0.8, 0.6));
	float light = max(dot(n, lightDir), 0.0) * 0.65 + 0.35;
	vec4 tex = texture(diffuse, vUV);
	fragColor = vec4(tex.rgb * baseColor.rgb * light, tex.a * baseColor.a);
}
`

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer handles all OpenGL rendering. It satisfies anim.Graphics: the
// model calls ApplyTransform and DrawTriangles, the renderer streams the
// already-skinned arrays into dynamic buffers.
type Renderer struct {
	config Config

	program uint32
	vao     uint32
	posVBO  uint32
	normVBO uint32
	uvVBO   uint32
	ebo     uint32

	uProjection int32
	uView       int32
	uModel      int32
	uDiffuse    int32
	uBaseColor  int32

	whiteTex uint32

	// Texture and color for the next draw, reset to plain white after
	// each one. Materials set these through bindDiffuse.
	pendingTex   uint32
	pendingColor [4]float32
}

// New creates a renderer. Must be called after the OpenGL context exists.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{config: cfg}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	var err error
	r.program, err = shader.CompileProgram(vertexShaderSrc, fragmentShaderSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	r.uProjection = shader.MustGetUniform(r.program, "projection")
	r.uView = shader.MustGetUniform(r.program, "view")
	r.uModel = shader.MustGetUniform(r.program, "model")
	r.uDiffuse = shader.MustGetUniform(r.program, "diffuse")
	r.uBaseColor = shader.MustGetUniform(r.program, "baseColor")

	r.createBuffers()
	r.whiteTex = r.createWhiteTexture()
	r.resetPending()

	gl.UseProgram(r.program)
	gl.Uniform1i(r.uDiffuse, 0)
	identity := math.Identity()
	gl.UniformMatrix4fv(r.uModel, 1, false, identity.Ptr())
	gl.UniformMatrix4fv(r.uView, 1, false, identity.Ptr())
	gl.UniformMatrix4fv(r.uProjection, 1, false, identity.Ptr())

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// createBuffers sets up the VAO with one dynamic buffer per vertex stream.
func (r *Renderer) createBuffers() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.posVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &r.normVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.normVBO)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &r.uvVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.uvVBO)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)

	gl.BindVertexArray(0)
}

func (r *Renderer) createWhiteTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	white := []uint8{255, 255, 255, 255}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(white))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	return tex
}

func (r *Renderer) resetPending() {
	r.pendingTex = r.whiteTex
	r.pendingColor = [4]float32{1, 1, 1, 1}
}

// bindDiffuse stages a texture and tint for the next DrawTriangles call.
func (r *Renderer) bindDiffuse(tex uint32, color [4]float32) {
	if tex == 0 {
		tex = r.whiteTex
	}
	r.pendingTex = tex
	r.pendingColor = color
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	for _, buf := range []*uint32{&r.posVBO, &r.normVBO, &r.uvVBO, &r.ebo} {
		if *buf != 0 {
			gl.DeleteBuffers(1, buf)
		}
	}
	if r.whiteTex != 0 {
		gl.DeleteTextures(1, &r.whiteTex)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetCamera uploads the view and projection matrices.
func (r *Renderer) SetCamera(view, projection math.Mat4) {
	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uView, 1, false, view.Ptr())
	gl.UniformMatrix4fv(r.uProjection, 1, false, projection.Ptr())
}

// ApplyTransform uploads the model matrix used by subsequent draws.
func (r *Renderer) ApplyTransform(m math.Mat4) {
	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uModel, 1, false, m.Ptr())
}

// DrawTriangles streams one posed mesh and draws it. Positions and normals
// change every frame, so all buffers are uploaded with DYNAMIC_DRAW.
func (r *Renderer) DrawTriangles(positions, normals [][3]float32, uvs [][2]float32, indices []uint32) {
	if len(positions) == 0 || len(indices) == 0 {
		return
	}
	if len(uvs) == 0 {
		uvs = make([][2]float32, len(positions))
	}

	gl.UseProgram(r.program)
	gl.BindVertexArray(r.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(positions)*12, gl.Ptr(positions), gl.DYNAMIC_DRAW)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.normVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(normals)*12, gl.Ptr(normals), gl.DYNAMIC_DRAW)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.uvVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(uvs)*8, gl.Ptr(uvs), gl.DYNAMIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.DYNAMIC_DRAW)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.pendingTex)
	gl.Uniform4f(r.uBaseColor, r.pendingColor[0], r.pendingColor[1], r.pendingColor[2], r.pendingColor[3])

	gl.DrawElements(gl.TRIANGLES, int32(len(indices)), gl.UNSIGNED_INT, nil)

	gl.BindVertexArray(0)
	r.resetPending()
}
