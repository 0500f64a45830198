package fetcher

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/model"
)

// ReadShapefile reads accident points from an ESRI shapefile, the other
// distribution format of the source dataset. Attribute names match the
// GeoJSON properties (id, datetime, severity, region).
func ReadShapefile(path string) ([]model.RawRecord, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, "id")
	dtIdx := fieldIndex(reader, "datetime")
	sevIdx := fieldIndex(reader, "severity")
	regIdx := fieldIndex(reader, "region")
	if dtIdx < 0 || sevIdx < 0 || regIdx < 0 {
		return nil, eris.New("fetcher: required shapefile fields (datetime, severity, region) not found")
	}

	log := zap.L().With(zap.String("component", "fetcher.shapefile"))

	var records []model.RawRecord
	for reader.Next() {
		n, shape := reader.Shape()

		rec := model.RawRecord{
			Datetime: strings.TrimSpace(reader.Attribute(dtIdx)),
			Severity: strings.TrimSpace(reader.Attribute(sevIdx)),
			District: strings.TrimSpace(reader.Attribute(regIdx)),
		}
		if idIdx >= 0 {
			rec.ID = strings.TrimSpace(reader.Attribute(idIdx))
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("shape-%d", n)
		}
		if pt, ok := shape.(*shp.Point); ok {
			rec.PointText = fmt.Sprintf("POINT (%g %g)", pt.X, pt.Y)
		}

		records = append(records, rec)
	}

	log.Info("loaded accident shapes",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
