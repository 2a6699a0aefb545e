package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/wmhtool/pkg/grf"
)

func openTestArchive(t *testing.T, files []grf.File) *grf.Archive {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, grf.Write(&buf, files))
	path := filepath.Join(t.TempDir(), "data.grf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	a, err := grf.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestLoadFromArchive(t *testing.T) {
	node := triangleNode("", "")
	node.textureIDs = []int32{0}
	a := openTestArchive(t, []grf.File{
		{Name: "data/model/prop/sign.rsm", Data: makeRSM(1, 5, []string{"sign.bmp"}, "", []testNode{node})},
		{Name: "data/model/obj/quad.obj", Data: []byte(quadOBJ)},
		{Name: "data/model/obj/quad.mtl", Data: []byte(quadMTL)},
		{Name: "data/model/obj/bare.obj", Data: []byte("mtllib none.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")},
		{Name: "data/readme.txt", Data: []byte("hi")},
	})

	t.Run("rsm", func(t *testing.T) {
		obj, err := LoadFromArchive(a, `DATA\MODEL\PROP\SIGN.RSM`)
		require.NoError(t, err)
		assert.Equal(t, "SIGN", obj.Name)
		assert.Equal(t, 1, obj.Mesh.TriangleCount())
		assert.Equal(t, []byte("sign.bmp"), obj.Mesh.UV.Faces[0].Image.Name)
	})

	t.Run("obj with material library", func(t *testing.T) {
		obj, err := LoadFromArchive(a, "data/model/obj/quad.obj")
		require.NoError(t, err)
		assert.Equal(t, "Plane", obj.Name)
		assert.Equal(t, []byte("stone.tga"), obj.Mesh.UV.Faces[0].Image.Name)
	})

	t.Run("obj without material library", func(t *testing.T) {
		obj, err := LoadFromArchive(a, "data/model/obj/bare.obj")
		require.NoError(t, err)
		assert.Equal(t, "bare", obj.Name)
		assert.Nil(t, obj.Mesh.UV)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := LoadFromArchive(a, "data/model/missing.rsm")
		assert.ErrorIs(t, err, grf.ErrNotFound)

		_, err = LoadFromArchive(a, "data/readme.txt")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestLoadWithArchives(t *testing.T) {
	node := triangleNode("gate", "")
	a := openTestArchive(t, []grf.File{
		{Name: "data/model/gate.rsm", Data: makeRSM(1, 5, nil, "gate", []testNode{node})},
	})

	obj, err := LoadWithArchives("data/model/gate.rsm", []*grf.Archive{a})
	require.NoError(t, err)
	assert.Equal(t, "gate", obj.Name)

	dir := t.TempDir()
	path := writeFile(t, dir, "tri.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	obj, err = LoadWithArchives(path, []*grf.Archive{a})
	require.NoError(t, err)
	assert.Equal(t, "tri", obj.Name)

	_, err = LoadWithArchives("data/model/missing.rsm", []*grf.Archive{a})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadWithArchives(filepath.Join(dir, "missing.obj"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
