// Package main is the animated model viewer. It loads one glTF asset and
// shows four instances of it side by side, each driven through a different
// entry point of the animation runtime: the one-call draw path, the manual
// per-mesh path, the per-mesh path with vertex post-processing, and the
// manual path with a live bone override.
package main

import (
	"fmt"
	gomath "math"
	"os"
	"runtime"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/skelanim/internal/config"
	"github.com/Faultbox/skelanim/internal/engine/render"
	"github.com/Faultbox/skelanim/internal/engine/window"
	"github.com/Faultbox/skelanim/internal/logger"
	"github.com/Faultbox/skelanim/pkg/anim"
	"github.com/Faultbox/skelanim/pkg/gltfscene"
	"github.com/Faultbox/skelanim/pkg/math"
)

const windowTitle = "Skeletal Animation Viewer"

const modelSpacing = 2.2

func init() {
	runtime.LockOSThread()
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Skeletal Animation Viewer ===")

	win, err := window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		logger.Error("window creation failed", zap.Error(err))
		os.Exit(1)
	}
	defer win.Close()

	renderer, err := render.New(render.Config{
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
	})
	if err != nil {
		logger.Error("renderer creation failed", zap.Error(err))
		os.Exit(1)
	}
	defer renderer.Close()

	sc, err := gltfscene.Load(cfg.Model.Path, renderer.MaterialFactory())
	if err != nil {
		logger.Error("failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.Int("nodes", len(sc.Nodes)),
		zap.Int("meshes", len(sc.Meshes)),
		zap.Int("clips", len(sc.Clips)),
	)

	// Four instances over one shared scene, each with its own pose.
	models := make([]*anim.Model, 4)
	for i := range models {
		models[i], err = anim.New(sc, renderer)
		if err != nil {
			logger.Error("failed to build model", zap.Error(err))
			os.Exit(1)
		}
	}

	fmt.Print(models[0].FormatBoneHierarchy())
	for _, clip := range sc.Clips {
		logger.Info("clip",
			zap.String("name", clip.Name),
			zap.Float64("duration", clip.Duration),
			zap.Float64("ticks_per_second", clip.TicksPerSecond),
		)
	}

	clipID := 0
	if cfg.Model.Clip != "" {
		clipID = sc.ClipByName(cfg.Model.Clip)
		if clipID < 0 {
			logger.Error("no such clip", zap.String("clip", cfg.Model.Clip))
			os.Exit(1)
		}
	}
	animated := len(sc.Clips) > 0

	width, height := win.GetSize()
	run(win, renderer, models, clipID, animated, cfg.Model.Speed, width, height)

	logger.Info("viewer closed normally")
}

func run(win *window.Window, renderer *render.Renderer, models []*anim.Model, clipID int, animated bool, speed float64, width, height int) {
	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false

			case *sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
					width, height = win.GetSize()
					renderer.Resize(width, height)
				}

			case *sdl.KeyboardEvent:
				if e.State == sdl.PRESSED && e.Keysym.Sym == sdl.K_ESCAPE {
					running = false
				}
			}
		}

		t := float64(sdl.GetTicks64()) / 1000.0 * speed

		renderer.Begin()

		aspect := float32(width) / float32(height)
		renderer.SetCamera(
			math.LookAt(
				math.Vec3{X: 0, Y: 1.2, Z: 6},
				math.Vec3{X: 0, Y: 0.8, Z: 0},
				math.Vec3{X: 0, Y: 1, Z: 0},
			),
			math.Perspective(gomath.Pi/4, aspect, 0.1, 100),
		)

		// Slow turntable so the skeleton reads from every side.
		turn := math.RotateY(float32(t) * 0.3)
		for i, m := range models {
			x := modelSpacing * (float32(i) - float32(len(models)-1)/2)
			renderer.ApplyTransform(math.Translate(x, 0, 0).Mul(turn))
			if err := drawVariant(i, m, clipID, animated, t); err != nil {
				logger.Error("draw failed", zap.Int("variant", i), zap.Error(err))
				running = false
			}
		}

		win.SwapBuffers()
	}
}

// drawVariant draws one model instance through one of the runtime's entry
// points.
func drawVariant(variant int, m *anim.Model, clipID int, animated bool, t float64) error {
	if !animated {
		return m.DrawStatic()
	}

	switch variant {
	case 0:
		// Everything in one call.
		return m.DrawFrame(clipID, t)

	case 1:
		// Manual per-mesh path, same result as DrawFrame.
		if err := m.CreateFrame(clipID, t); err != nil {
			return err
		}
		return drawMeshes(m, nil)

	case 2:
		// Post-process the skinned vertices before drawing: a ripple
		// along each vertex normal.
		if err := m.CreateFrame(clipID, t); err != nil {
			return err
		}
		return drawMeshes(m, func(frame *anim.MeshFrame) {
			for v := range frame.Positions {
				ripple := 0.02 * float32(gomath.Sin(float64(frame.Positions[v][1])*10+t*6))
				for k := 0; k < 3; k++ {
					frame.Positions[v][k] += frame.Normals[v][k] * ripple
				}
			}
		})

	default:
		// Overwrite one bone on top of the sampled clip.
		if err := m.CreateFrame(clipID, t); err != nil {
			return err
		}
		if id := overrideBone(m); id >= 0 {
			b := &m.Bones[id]
			s, r, tr := b.LocalTransformation.Decompose()
			wobble := math.QuatFromAxisAngle(
				math.Vec3{Z: 1},
				0.7*float32(gomath.Sin(t*3)),
			)
			b.LocalTransformation = math.Compose(s, r.Mul(wobble), tr)
		}
		return drawMeshes(m, nil)
	}
}

func drawMeshes(m *anim.Model, post func(*anim.MeshFrame)) error {
	for i := range m.Scene.Meshes {
		frame, err := m.GetMeshFrame(i)
		if err != nil {
			return err
		}
		if post != nil {
			post(frame)
		}
		if err := m.DrawMeshFrame(i, frame); err != nil {
			return err
		}
	}
	return nil
}

// overrideBone picks the bone the override variant animates: the first one
// whose name suggests a head, otherwise the last bone (usually a leaf).
func overrideBone(m *anim.Model) int {
	for id := range m.Bones {
		if strings.Contains(strings.ToLower(m.Bones[id].Node), "head") {
			return id
		}
	}
	return len(m.Bones) - 1
}
