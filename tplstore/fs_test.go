package tplstore_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/quotepdf/doctpl"
	"github.com/lvillar/quotepdf/tplstore"
)

func templateFS() fstest.MapFS {
	return fstest.MapFS{
		"ocean.json":  {Data: []byte(`{"name": "Ocean", "sections": [{"type": "header"}]}`)},
		"air.yaml":    {Data: []byte("id: air-v2\nname: Air\nsections:\n  - type: footer\n")},
		"broken.json": {Data: []byte(`{"sections": []}`)},
		"notes.txt":   {Data: []byte("ignored")},
		"sub/x.json":  {Data: []byte(`{"name": "Nested"}`)},
	}
}

func TestFSStoreGet(t *testing.T) {
	s := tplstore.NewFSStore(templateFS())
	ctx := context.Background()

	ocean, err := s.Get(ctx, "ocean")
	require.NoError(t, err)
	assert.Equal(t, "ocean", ocean.ID)
	assert.Equal(t, "A4", ocean.Config.PageSize, "defaults applied")

	air, err := s.Get(ctx, "air")
	require.NoError(t, err)
	assert.Equal(t, "air-v2", air.ID)
	assert.Equal(t, doctpl.SectionFooter, air.Sections[0].Type)
}

func TestFSStoreErrors(t *testing.T) {
	s := tplstore.NewFSStore(templateFS())
	ctx := context.Background()

	for _, id := range []string{"missing", "", "../etc/passwd", "sub/x"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, tplstore.ErrNotFound, id)
	}

	_, err := s.Get(ctx, "broken")
	assert.ErrorIs(t, err, doctpl.ErrValidation)
	assert.False(t, errors.Is(err, tplstore.ErrNotFound))
}

func TestFSStoreList(t *testing.T) {
	ids, err := tplstore.NewFSStore(templateFS()).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"air", "broken", "ocean"}, ids)
}

func TestBuiltinAndChain(t *testing.T) {
	ctx := context.Background()

	tpl, err := tplstore.Builtin{}.Get(ctx, doctpl.BuiltinMGL)
	require.NoError(t, err)
	assert.Equal(t, "MGL Ocean Quotation", tpl.Name)

	_, err = tplstore.Builtin{}.Get(ctx, "ocean")
	assert.ErrorIs(t, err, tplstore.ErrNotFound)

	chain := tplstore.Chain{tplstore.NewFSStore(templateFS()), tplstore.Builtin{}}
	tpl, err = chain.Get(ctx, "ocean")
	require.NoError(t, err)
	assert.Equal(t, "Ocean", tpl.Name)

	tpl, err = chain.Get(ctx, doctpl.BuiltinDefault)
	require.NoError(t, err)
	assert.Equal(t, "Standard Quotation", tpl.Name)

	_, err = chain.Get(ctx, "nowhere")
	assert.ErrorIs(t, err, tplstore.ErrNotFound)

	// a broken template stops the chain
	_, err = chain.Get(ctx, "broken")
	assert.ErrorIs(t, err, doctpl.ErrValidation)
}
