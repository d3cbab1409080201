package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/chromatic"
	"github.com/gogpu/chromatic/internal/scene"
	"github.com/gogpu/chromatic/spectral"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <scene.yaml>",
	Short: "Print the node tree of a scene",
	Long: `Inspect builds a scene and prints its expression tree with the
separability, wavelength knots and interpolation grid of every node, followed
by the flux and centroid through the scene bandpass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scene.Load(args[0])
		if err != nil {
			return err
		}
		built, err := s.Build()
		if err != nil {
			return fmt.Errorf("failed to build scene: %w", err)
		}
		printTree(cmd.OutOrStdout(), built.Node, 0)
		return printMoments(cmd.OutOrStdout(), built.Node, built.Bandpass)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printTree(w io.Writer, n *chromatic.Node, depth int) {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind().String())
	if n.Kind() == chromatic.KindLeaf {
		fmt.Fprintf(&b, " %s", n.Profile())
	}
	fmt.Fprintf(&b, " separable=%t", n.Separable())
	if norm := n.Normalization(); norm.HasSED() {
		fmt.Fprintf(&b, " sed=%s", norm.SED())
	}
	if knots := n.WaveList(); len(knots) > 0 {
		fmt.Fprintf(&b, " knots=%d[%g..%g]", len(knots), knots[0], knots[len(knots)-1])
	}
	if grid := n.Grid(); grid != nil {
		fmt.Fprintf(&b, " grid=%v", grid)
	}
	fmt.Fprintln(w, b.String())
	for _, c := range n.Children() {
		printTree(w, c, depth+1)
	}
}

func printMoments(w io.Writer, n *chromatic.Node, bp *spectral.Bandpass) error {
	flux, err := n.CalculateFlux(bp)
	if err != nil {
		return err
	}
	x, y, err := n.Centroid(bp)
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "bandpass %s (effective %.1f nm)\n", bp, bp.EffectiveWavelength())
	p.Fprintf(w, "flux %.2f photons, centroid (%.4f, %.4f)\n", flux, x, y)
	return nil
}
