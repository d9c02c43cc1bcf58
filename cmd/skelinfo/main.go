// skelinfo is a CLI utility for inspecting the skeleton, clips, and meshes
// of a glTF asset without opening a window.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/skelanim/pkg/anim"
	"github.com/Faultbox/skelanim/pkg/gltfscene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "bones":
		cmdBones(args)
	case "clips":
		cmdClips(args)
	case "meshes":
		cmdMeshes(args)
	case "info":
		cmdInfo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`skelinfo - glTF skeleton and animation inspector

Usage:
  skelinfo <command> <file.glb|file.gltf>

Commands:
  info <file>     Summary: nodes, meshes, bones, clips
  bones <file>    Bone hierarchy (id, name, indented by depth)
  clips <file>    Animation clips with durations and channels
  meshes <file>   Meshes with vertex, triangle, and bone counts

Examples:
  skelinfo bones character.glb
  skelinfo clips character.glb`)
}

func load(args []string, usage string) *anim.Model {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	sc, err := gltfscene.Load(args[0], nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	model, err := anim.New(sc, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return model
}

func cmdInfo(args []string) {
	model := load(args, "Usage: skelinfo info <file>")
	sc := model.Scene

	fmt.Printf("Nodes:  %d\n", len(sc.Nodes))
	fmt.Printf("Meshes: %d\n", len(sc.Meshes))
	fmt.Printf("Bones:  %d\n", len(model.Bones))
	fmt.Printf("Clips:  %d\n", len(sc.Clips))
}

func cmdBones(args []string) {
	model := load(args, "Usage: skelinfo bones <file>")
	fmt.Print(model.FormatBoneHierarchy())
}

func cmdClips(args []string) {
	model := load(args, "Usage: skelinfo clips <file>")

	if len(model.Scene.Clips) == 0 {
		fmt.Println("no animation clips")
		return
	}
	for i, clip := range model.Scene.Clips {
		tps := clip.TicksPerSecond
		if tps == 0 {
			tps = 25
		}
		fmt.Printf("%d %s  %.2fs  %d channels\n", i, clip.Name, clip.Duration/tps, len(clip.Channels))
		for _, ch := range clip.Channels {
			fmt.Printf("  %s  pos:%d rot:%d scale:%d\n",
				ch.Node, len(ch.PositionKeys), len(ch.RotationKeys), len(ch.ScaleKeys))
		}
	}
}

func cmdMeshes(args []string) {
	model := load(args, "Usage: skelinfo meshes <file>")

	for i, mesh := range model.Scene.Meshes {
		fmt.Printf("%d %s  %d vertices  %d triangles  %d bones\n",
			i, mesh.Name, len(mesh.Positions), len(mesh.Indices)/3, len(mesh.Bones))
	}
}
