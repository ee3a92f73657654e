package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/CargoFit/internal/model"
)

func TestExportDXF_WritesWireframe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "load.dxf")
	result := buildTestResult()

	require.NoError(t, ExportDXF(path, buildTestContainer(), result))

	d, err := dxf.Open(path)
	require.NoError(t, err)

	lines := 0
	for _, e := range d.Entities() {
		if _, ok := e.(*entity.Line); ok {
			lines++
		}
	}
	assert.Equal(t, 12*(len(result.Placed)+1), lines)
	for _, name := range []string{ContainerLayer, stopLayer(1), stopLayer(2)} {
		assert.Contains(t, d.Layers, name)
	}
}

func TestExportDXF_EmptyLoadDrawsContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dxf")

	require.NoError(t, ExportDXF(path, buildTestContainer(), model.PlacementResult{}))

	d, err := dxf.Open(path)
	require.NoError(t, err)
	assert.Len(t, d.Entities(), 12)
}

func TestExportDXF_InvalidContainer(t *testing.T) {
	err := ExportDXF(filepath.Join(t.TempDir(), "bad.dxf"), model.Container{}, buildTestResult())
	assert.Error(t, err)
}
