// Command vidprobe prints a video's stream metadata and, with -scan,
// verifies that every frame actually decodes. Useful for checking whether a
// file's reported frame count can be trusted before visualizing it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ritammehta/frame-by-frame/pkg/media"
)

func main() {
	decoder := flag.String("decoder", "reisen", "decoding backend: reisen or vidio")
	scan := flag.Bool("scan", false, "decode every frame and report failures")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <video>\n", os.Args[0])
		os.Exit(2)
	}

	src, err := media.Open(*decoder, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()

	meta, err := src.Metadata()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("frames:   %d\n", meta.TotalFrames)
	fmt.Printf("fps:      %.3f\n", meta.FrameRate)
	fmt.Printf("size:     %dx%d\n", meta.Width, meta.Height)
	fmt.Printf("duration: %.2fs\n", meta.Duration())

	if !*scan {
		return
	}

	// The decoders run forward only, so stop at the first failure; nothing
	// past it is reachable.
	decoded := 0
	for i := 0; i < meta.TotalFrames; i++ {
		if _, err := src.FrameAt(context.Background(), i); err != nil {
			log.Printf("frame %d: %v", i, err)
			break
		}
		decoded++
	}
	fmt.Printf("decoded:  %d\n", decoded)
	if decoded != meta.TotalFrames {
		fmt.Printf("short by: %d\n", meta.TotalFrames-decoded)
		os.Exit(1)
	}
}
