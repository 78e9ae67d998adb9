package inspector

import (
	"cloakbot/internal/core/domain"
	"fmt"
	"os"
	"strings"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Exif reads EXIF metadata of JPEG, HEIC and TIFF based raw files.
type Exif struct{}

func NewExif() *Exif {
	return &Exif{}
}

func (e *Exif) Inspect(path string) (domain.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := imagemeta.Decode(f)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	info := domain.ImageInfo{
		CameraMake:  strings.TrimSpace(data.Make),
		CameraModel: strings.TrimSpace(data.Model),
		DateTaken:   data.DateTimeOriginal(),
		HasGPS:      data.GPS.Latitude() != 0 || data.GPS.Longitude() != 0,
	}

	log.Debug().
		Str("path", path).
		Str("make", info.CameraMake).
		Str("model", info.CameraModel).
		Bool("has_gps", info.HasGPS).
		Msg("image metadata extracted")

	return info, nil
}
