package mapview

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// captureFileName names a frame by wall clock time and the period shown.
func captureFileName(timestamp time.Time, yearLabel string) string {
	if yearLabel == "" {
		yearLabel = "none"
	}
	return fmt.Sprintf("propmap-%s-%s.png", timestamp.Format("20060102-150405"), yearLabel)
}

func (v *Viewer) captureFrame(img *ebiten.Image, yearLabel string) {
	if v.FrameCaptureDir == "" {
		log.Printf("[viewer] Capture requested but no capture directory is set")
		return
	}
	if err := os.MkdirAll(v.FrameCaptureDir, 0o755); err != nil {
		log.Printf("[viewer] Error creating capture directory: %v", err)
		return
	}
	path := filepath.Join(v.FrameCaptureDir, captureFileName(time.Now(), yearLabel))

	// ReadPixels must happen on the game goroutine; encoding need not.
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	img.ReadPixels(rgba.Pix)

	go func() {
		if err := writePNG(path, rgba); err != nil {
			log.Printf("[viewer] Error writing capture: %v", err)
			return
		}
		log.Printf("[viewer] Captured frame: %s", path)
	}()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
