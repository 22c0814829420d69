package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func rgb8(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestDrawBoxes_Outline(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	rects := []LabeledRect{{Rect: image.Rect(20, 30, 60, 80), ClassID: 7}}

	result := DrawBoxes(img, rects, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name  string
		x, y  int
		wantR uint8
	}{
		{"top edge", 40, 30, 255},
		{"bottom edge", 40, 79, 255},
		{"left edge", 20, 55, 255},
		{"right edge", 59, 55, 255},
		{"inside", 40, 55, 0},
		{"outside", 10, 10, 0},
		{"past exclusive max", 40, 80, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := rgb8(result, tt.x, tt.y)
			if r != tt.wantR {
				t.Errorf("pixel (%d,%d) red: got %d, want %d", tt.x, tt.y, r, tt.wantR)
			}
		})
	}
}

func TestDrawBoxes_Label(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{255, 255, 255, 255})
	result := DrawBoxes(img, []LabeledRect{{Rect: image.Rect(10, 10, 40, 40), ClassID: 1}}, nil)

	// The label background takes the box color.
	r, g, b := rgb8(result, 11, 11)
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("label background: got (%d,%d,%d), want default green", r, g, b)
	}

	// The class id is rendered in black inside the label.
	black := 0
	for y := 12; y < 25; y++ {
		for x := 12; x < 20; x++ {
			if r, g, b := rgb8(result, x, y); r == 0 && g == 0 && b == 0 {
				black++
			}
		}
	}
	if black == 0 {
		t.Error("no label glyph pixels found")
	}
}

func TestDrawBoxes_ClipsAndSkips(t *testing.T) {
	img := createInMemoryImage(40, 40, color.RGBA{0, 0, 0, 255})
	rects := []LabeledRect{
		{Rect: image.Rect(30, 30, 90, 90), ClassID: 2},
		{Rect: image.Rect(100, 100, 120, 120), ClassID: 3},
	}

	result := DrawBoxes(img, rects, color.RGBA{0, 0, 255, 255})

	if result.Bounds() != image.Rect(0, 0, 40, 40) {
		t.Errorf("bounds: got %v, want 40x40", result.Bounds())
	}
	_, _, b := rgb8(result, 39, 35)
	if b != 255 {
		t.Errorf("clipped right edge: got blue %d, want 255", b)
	}
}

func TestDrawBoxes_DoesNotModifyInput(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{0, 0, 0, 255})
	DrawBoxes(img, []LabeledRect{{Rect: image.Rect(0, 0, 20, 20)}}, color.RGBA{255, 0, 0, 255})

	r, _, _ := rgb8(img, 0, 0)
	if r != 0 {
		t.Error("DrawBoxes modified the source image")
	}
}

func TestDrawBoxes_OffsetBounds(t *testing.T) {
	base := createInMemoryImage(60, 60, color.RGBA{0, 0, 0, 255}).(*image.RGBA)
	sub := base.SubImage(image.Rect(10, 10, 50, 50))

	result := DrawBoxes(sub, []LabeledRect{{Rect: image.Rect(0, 0, 10, 10)}}, color.RGBA{255, 0, 0, 255})
	if result.Bounds().Min != (image.Point{}) {
		t.Errorf("result origin: got %v, want (0,0)", result.Bounds().Min)
	}
	r, _, _ := rgb8(result, 5, 0)
	if r != 255 {
		t.Errorf("box drawn in wrong frame: red %d at (5,0)", r)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"#00ff7f", color.RGBA{0, 255, 127, 255}, false},
		{"red", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHexColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got := color.RGBAModel.Convert(c).(color.RGBA)
			if got != tt.want {
				t.Errorf("ParseHexColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodePNG(t *testing.T) {
	img := createInMemoryImage(30, 20, color.RGBA{10, 20, 30, 255})

	result, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if result.Width != 30 || result.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 30x20", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	r, g, b := rgb8(decoded, 5, 5)
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("pixel: got (%d,%d,%d), want (10,20,30)", r, g, b)
	}
}

func TestEncodePNG_Gray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	gray.SetGray(2, 2, color.Gray{Y: 200})

	result, err := EncodePNG(gray)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	data, _ := base64.StdEncoding.DecodeString(result.ImageBase64)
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	r, _, _ := rgb8(decoded, 2, 2)
	if r != 200 {
		t.Errorf("gray pixel: got %d, want 200", r)
	}
}
