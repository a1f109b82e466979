// Command gridalign fits the plan-to-grid affine transform from a
// correspondence file and prints the result.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"floorplan-studio/internal/align"
	"floorplan-studio/pkg/geometry"
)

func main() {
	inPath := flag.String("in", "", "Path to correspondence JSON: [{\"plan\":{\"x\":..,\"y\":..},\"grid\":{..}}, ...]")
	probe := flag.String("probe", "", "Optional plan point x,y to map through the fitted transform")
	flag.Parse()

	if *inPath == "" {
		fmt.Println("Usage: gridalign -in <correspondences.json> [-probe x,y]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read correspondences: %v\n", err)
		os.Exit(1)
	}

	var points []align.Correspondence
	if err := json.Unmarshal(data, &points); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse correspondences: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d correspondences from %s\n", len(points), *inPath)

	result, err := align.GridTransform(points)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fit failed: %v\n", err)
		os.Exit(1)
	}

	t := result.Transform
	fmt.Println("\n=== Fitted transform ===")
	fmt.Printf("  | %9.4f %9.4f %12.4f |\n", t.A, t.B, t.TX)
	fmt.Printf("  | %9.4f %9.4f %12.4f |\n", t.C, t.D, t.TY)
	fmt.Printf("Inliers:    %d / %d\n", len(result.Inliers), len(points))
	fmt.Printf("Mean error: %.4f px\n", result.MeanError)

	if *probe != "" {
		var p geometry.Point2D
		if _, err := fmt.Sscanf(*probe, "%f,%f", &p.X, &p.Y); err != nil {
			fmt.Fprintf(os.Stderr, "Bad probe point %q: %v\n", *probe, err)
			os.Exit(1)
		}
		mapped := t.Apply(p)
		fmt.Printf("Probe (%.2f, %.2f) -> grid (%.4f, %.4f)\n", p.X, p.Y, mapped.X, mapped.Y)
	}
}
