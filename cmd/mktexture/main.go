// Command mktexture writes a checkerboard bitmap usable as a cube texture.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"quarkcube/render"

	"golang.org/x/image/bmp"
)

func main() {
	var (
		outPath = flag.String("out", "", "Output .bmp file.")
		size    = flag.Int("size", 64, "Width and height in pixels.")
		cells   = flag.Int("cells", 8, "Squares per row.")
		colorA  = flag.String("a", "d03030", "First square color, hex RRGGBB.")
		colorB  = flag.String("b", "f0e090", "Second square color, hex RRGGBB.")
	)
	flag.Parse()

	if *outPath == "" || *size <= 0 {
		fatalf("usage: mktexture -out texture.bmp [-size 64] [-cells 8] [-a d03030] [-b f0e090]")
	}
	a, err := parseHex(*colorA)
	if err != nil {
		fatalf("-a: %v", err)
	}
	b, err := parseHex(*colorB)
	if err != nil {
		fatalf("-b: %v", err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		fatalf("create: %v", err)
	}
	if err := bmp.Encode(f, render.Checkerboard(*size, *cells, a, b)); err != nil {
		_ = f.Close()
		fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		fatalf("close: %v", err)
	}
}

func parseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("want RRGGBB, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
