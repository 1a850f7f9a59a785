// Package thumbnail resizes uploaded images for avatars, realm branding and
// custom emoji.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/disintegration/imaging"
)

const (
	DefaultAvatarSize = 100
	MediumAvatarSize  = 500
	DefaultEmojiSize  = 64
	MaxLogoWidth      = 800
	MaxLogoHeight     = 100
	// MaxImagePixels bounds decoded dimensions to keep decompression bombs out.
	MaxImagePixels = 50_000_000
)

// ErrBadImage reports input that is not a decodable image.
var ErrBadImage = errors.New("could not decode image; did you upload an image file?")

// ErrImageTooLarge reports an image whose pixel area exceeds MaxImagePixels.
var ErrImageTooLarge = errors.New("image size exceeds limit")

// Result is an encoded image.
type Result struct {
	Data        []byte
	ContentType string
}

// ResizeAvatar crops to a centered square of size x size and encodes png.
func ResizeAvatar(data []byte, size int) ([]byte, error) {
	img, _, err := decode(data)
	if err != nil {
		return nil, err
	}
	return encodePNG(imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos))
}

// ResizeLogo shrinks to fit within the logo box; smaller images keep their size.
func ResizeLogo(data []byte) ([]byte, error) {
	img, _, err := decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() > MaxLogoWidth || b.Dy() > MaxLogoHeight {
		img = imaging.Fit(img, MaxLogoWidth, MaxLogoHeight, imaging.Lanczos)
	}
	return encodePNG(img)
}

// ResizeEmoji fits the image in a size x size box. Animated GIFs stay
// animated and also get a still PNG of their first frame; other formats
// return a nil still.
func ResizeEmoji(data []byte, size int) (resized Result, still []byte, err error) {
	_, format, err := decodeConfig(data)
	if err != nil {
		return Result{}, nil, err
	}
	if format == "gif" {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return Result{}, nil, fmt.Errorf("%w: %v", ErrBadImage, err)
		}
		if len(g.Image) > 1 {
			return resizeAnimated(g, size)
		}
	}

	img, format, err := decode(data)
	if err != nil {
		return Result{}, nil, err
	}
	img = imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	out := Result{ContentType: "image/png"}
	switch format {
	case "jpeg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
		out.ContentType = "image/jpeg"
	case "gif":
		err = imaging.Encode(&buf, img, imaging.GIF)
		out.ContentType = "image/gif"
	default:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return Result{}, nil, fmt.Errorf("encode emoji: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil, nil
}

func resizeAnimated(g *gif.GIF, size int) (Result, []byte, error) {
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		w, h = g.Image[0].Bounds().Dx(), g.Image[0].Bounds().Dy()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	out := &gif.GIF{LoopCount: g.LoopCount, Delay: make([]int, 0, len(g.Image))}
	var still []byte
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		scaled := imaging.Fit(canvas, size, size, imaging.Lanczos)

		pal := image.NewPaletted(scaled.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, scaled.Bounds(), scaled, scaled.Bounds().Min)
		out.Image = append(out.Image, pal)
		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		out.Delay = append(out.Delay, delay)

		if i == 0 {
			first, err := encodePNG(scaled)
			if err != nil {
				return Result{}, nil, err
			}
			still = first
		}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return Result{}, nil, fmt.Errorf("encode animated emoji: %w", err)
	}
	return Result{Data: buf.Bytes(), ContentType: "image/gif"}, still, nil
}

func decodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return image.Config{}, "", ErrImageTooLarge
	}
	return cfg, format, nil
}

func decode(data []byte) (image.Image, string, error) {
	_, format, err := decodeConfig(data)
	if err != nil {
		return nil, "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return img, format, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
