package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"quarkcube/app"
	"quarkcube/hal"
	"quarkcube/quarkgl"

	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	var cfg hal.HeadlessConfig
	host := hal.DefaultHostConfig()
	cam := quarkgl.DefaultCamera()

	variant := flag.String("variant", string(app.VariantTextured), "textured|colored.")
	texture := flag.String("texture", "", "Bitmap for the textured cube (default: checkerboard).")
	depth := flag.Bool("depth", false, "Attach a z-buffer.")
	overlay := flag.Bool("overlay", false, "Print frame statistics over the picture.")
	displayBits := flag.Int("display-bpp", 0, "Report an 8, 16 or 32 bit display (0 = framebuffer).")
	fov := flag.Float64("fov", 90, "Vertical field of view in degrees.")
	near := flag.Float64("near", float64(cam.Near), "Near clip plane.")
	far := flag.Float64("far", float64(cam.Far), "Far clip plane.")
	camZ := flag.Float64("cam-z", float64(cam.Position.Z()), "Camera z position.")
	flag.IntVar(&host.Width, "width", host.Width, "Client area width.")
	flag.IntVar(&host.Height, "height", host.Height, "Client area height.")
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.Parse()

	v, err := app.ParseVariant(*variant)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cam.FOVYRad = mgl32.DegToRad(float32(*fov))
	cam.Near = quarkgl.Scalar(*near)
	cam.Far = quarkgl.Scalar(*far)
	cam.Position = quarkgl.V3(0, 0, quarkgl.Scalar(*camZ))

	appCfg := app.Config{
		Variant:     v,
		Texture:     *texture,
		Depth:       *depth,
		Overlay:     *overlay,
		Camera:      cam,
		DisplayBits: *displayBits,
	}
	newApp := func(h hal.HAL) (hal.App, error) {
		return app.New(h, appCfg)
	}

	if cfg.Enabled {
		cfg.Host = host
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp, host); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
