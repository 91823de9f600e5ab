package imagepkg

import (
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPrefix marks template sources generated as QR codes, e.g. "qr:hello".
const QRPrefix = "qr:"

const qrTemplateSize = 256

// GenerateQRImage returns a QR code for text on a transparent background,
// ready to be used as a template image.
func GenerateQRImage(text string, size int) (image.Image, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.BackgroundColor = color.Transparent
	q.DisableBorder = true
	return q.Image(size), nil
}
