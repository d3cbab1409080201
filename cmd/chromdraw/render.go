package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/chromatic"
	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/internal/scene"
	"github.com/gogpu/chromatic/profile"
)

var (
	outFile   string
	showStats bool
)

var renderCmd = &cobra.Command{
	Use:   "render <scene.yaml>",
	Short: "Integrate a scene over its bandpass and write the image",
	Long: `Render loads a scene, draws it through the scene bandpass and writes the
image as TIFF (16-bit, deflate) or PNG, chosen by the output extension.
Pixel values are normalized to the brightest pixel; the photon flux is
printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRenderConfig()
		if err != nil {
			return err
		}
		res, err := renderScene(args[0], cfg)
		if err != nil {
			return err
		}
		if err := writeImage(outFile, res.image); err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), res, showStats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	f := renderCmd.Flags()
	f.StringVarP(&outFile, "output", "o", "out.tiff", "output file (.tiff, .tif or .png)")
	f.BoolVar(&showStats, "stats", false, "print the integration path and sample count")
	f.String("rule", chromatic.DefaultRule, "quadrature rule: trapezoidal or midpoint")
	f.Float64("oversample", 1, "oversampling of effective profile images")
	f.Float64("size-multiplier", 1, "size multiplier of effective profile images")
	f.Float64("scale", 0, "pixel scale (default: Nyquist scale of the object)")
	f.Int("size", 0, "image width and height in pixels (default: automatic)")
	f.String("method", "auto", "pixel response: auto or no_pixel")
	for _, name := range []string{"rule", "oversample", "size-multiplier", "scale", "size", "method"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
}

// renderConfig collects the drawing settings from flags, the config file and
// the environment.
type renderConfig struct {
	Rule            string
	Oversample      float64
	SizeMultiplier  float64
	Scale           float64
	Size            int
	Method          profile.Method
	MultiplierCache int
	EffectiveCache  int
}

func loadRenderConfig() (renderConfig, error) {
	method, err := profile.ParseMethod(strings.ToLower(viper.GetString("method")))
	if err != nil {
		return renderConfig{}, err
	}
	cfg := renderConfig{
		Rule:            viper.GetString("rule"),
		Oversample:      viper.GetFloat64("oversample"),
		SizeMultiplier:  viper.GetFloat64("size-multiplier"),
		Scale:           viper.GetFloat64("scale"),
		Size:            viper.GetInt("size"),
		Method:          method,
		MultiplierCache: viper.GetInt("cache.multiplier"),
		EffectiveCache:  viper.GetInt("cache.effective"),
	}
	if cfg.Rule == "" {
		cfg.Rule = chromatic.DefaultRule
	}
	if cfg.Oversample == 0 {
		cfg.Oversample = 1
	}
	if cfg.SizeMultiplier == 0 {
		cfg.SizeMultiplier = 1
	}
	if cfg.MultiplierCache == 0 {
		cfg.MultiplierCache = chromatic.DefaultCacheSize
	}
	if cfg.EffectiveCache == 0 {
		cfg.EffectiveCache = chromatic.DefaultCacheSize
	}
	return cfg, nil
}

func (c renderConfig) drawOptions() []chromatic.DrawOption {
	opts := []chromatic.DrawOption{
		chromatic.WithIntegrationRule(c.Rule),
		chromatic.WithOversampleMultiplier(c.Oversample),
		chromatic.WithImageSizeMultiplier(c.SizeMultiplier),
		chromatic.WithMethod(c.Method),
	}
	if c.Scale > 0 {
		opts = append(opts, chromatic.WithScale(c.Scale))
	}
	if c.Size > 0 {
		opts = append(opts, chromatic.WithSize(c.Size, c.Size))
	}
	return opts
}

type renderResult struct {
	scene    *scene.Built
	image    *image.Image
	stats    chromatic.DrawStats
	flux     float64
	cache    chromatic.CacheStats
	effCache chromatic.CacheStats
}

func renderScene(path string, cfg renderConfig) (*renderResult, error) {
	s, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	built, err := s.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}
	eng, err := chromatic.NewEngine(
		chromatic.WithMultiplierCacheSize(cfg.MultiplierCache),
		chromatic.WithEffectiveProfileCacheSize(cfg.EffectiveCache),
	)
	if err != nil {
		return nil, err
	}

	res := &renderResult{scene: built}
	slog.Info("rendering scene", "path", path, "bandpass", built.Bandpass, "separable", built.Node.Separable())
	res.image, err = eng.DrawImage(built.Node, built.Bandpass, append(cfg.drawOptions(), chromatic.WithStats(&res.stats))...)
	if err != nil {
		return nil, fmt.Errorf("failed to draw scene: %w", err)
	}
	res.flux = res.image.Sum()
	res.cache = eng.MultiplierCacheStats()
	res.effCache = eng.EffectiveProfileCacheStats()
	return res, nil
}

func printSummary(w io.Writer, res *renderResult, stats bool) {
	p := message.NewPrinter(language.English)
	img := res.image
	p.Fprintf(w, "%s: %.1f photons in %d x %d pixels at scale %.4g\n",
		res.scene.Bandpass, res.flux, img.Width(), img.Height(), img.Scale())
	if !stats {
		return
	}
	p.Fprintf(w, "path %s, %d wavelength evaluations, separable %t\n",
		res.stats.Path, res.stats.Evaluations, res.stats.Separable)
	p.Fprintf(w, "multiplier cache %d/%d hits %d misses %d\n",
		res.cache.Len, res.cache.Capacity, res.cache.Hits, res.cache.Misses)
	p.Fprintf(w, "effective cache %d/%d hits %d misses %d\n",
		res.effCache.Len, res.effCache.Capacity, res.effCache.Hits, res.effCache.Misses)
}
