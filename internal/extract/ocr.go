package extract

import "github.com/otiai10/gosseract/v2"

// OCREngine recognizes text in an encoded raster image.
type OCREngine interface {
	Recognize(image []byte) (string, error)
}

// TesseractEngine runs OCR through a local tesseract installation.
type TesseractEngine struct {
	// Languages passed to tesseract, e.g. "eng". Empty uses the default.
	Languages []string
}

// NewTesseractEngine returns the default OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

func (t *TesseractEngine) Recognize(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", err
	}
	return client.Text()
}
