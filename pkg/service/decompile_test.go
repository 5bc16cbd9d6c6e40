package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/duynguyendang/gerd/internal/manager"
	"github.com/duynguyendang/gerd/pkg/catalog"
	gerrors "github.com/duynguyendang/gerd/pkg/common/errors"
	"github.com/duynguyendang/gerd/pkg/erd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeManager serves one in-memory catalog under the name "DV920".
type fakeManager struct {
	store *catalog.Store
}

func (m *fakeManager) GetStore(env string) (*catalog.Store, error) {
	if env != "DV920" {
		return nil, fmt.Errorf("environment %s: %w", env, gerrors.ErrNotFound)
	}
	return m.store, nil
}

func (m *fakeManager) Resolver(env string) (erd.SpecResolver, error) {
	s, err := m.GetStore(env)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (m *fakeManager) ListEnvironments() ([]manager.EnvironmentMetadata, error) {
	return []manager.EnvironmentMetadata{{ID: "DV920", Name: "DV920"}}, nil
}

const (
	orderTemplate = `<DSTMPL szTmplName="D4200310A"><DSTMPLItem idItem="2" szDict="DOCO" szItemName="mnOrderNumber"/></DSTMPL>`
	nextNumber    = `<DSTMPL szTmplName="D0000010"><DSTMPLItem idItem="1" szDict="NNXT" szItemName="mnNextNumber"/></DSTMPL>`
	bfEvent       = `<EVENT szEventSpecKey="EV-BF"><GBRBF szFuncName="GetNextNumber" szTmplName="D0000010">` +
		`<ERPARAM wCopyWord="OUT" idItem="1"><DSOBJMember idItem="2"/></ERPARAM></GBRBF></EVENT>`
)

func newTestService(t *testing.T) *DecompileService {
	t.Helper()
	s, err := catalog.Open(catalog.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.PutTemplate([]byte(orderTemplate))
	require.NoError(t, err)
	_, err = s.PutTemplate([]byte(nextNumber))
	require.NoError(t, err)
	require.NoError(t, s.PutBusinessFunction("D0000010", "X0010"))
	return NewDecompileService(&fakeManager{store: s})
}

func TestDecompile_WithEnvironment(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Decompile(context.Background(), DecompileRequest{
		Environment:  "DV920",
		Events:       []string{bfEvent},
		TemplateName: "D4200310A",
	})
	require.NoError(t, err)
	assert.Equal(t, "EV-BF", res.RootEventSpecKey)
	assert.Equal(t, "GetNextNumber(X0010.GetNextNumber)\n\tmnOrderNumber [DOCO] <- mnNextNumber [NNXT]\n", res.ReadableText)
}

func TestDecompile_WithoutEnvironment(t *testing.T) {
	svc := NewDecompileService(nil)

	res, err := svc.Decompile(context.Background(), DecompileRequest{
		Events:      []string{bfEvent},
		TemplateXML: orderTemplate,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Lines, "business function calls need a resolver")
	assert.Equal(t, "D4200310A", res.TemplateName)
}

func TestDecompile_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Decompile(ctx, DecompileRequest{Environment: "DV920"})
	assert.True(t, errors.Is(err, gerrors.ErrInvalidInput))

	_, err = svc.Decompile(ctx, DecompileRequest{Environment: "PD920", Events: []string{bfEvent}})
	assert.True(t, errors.Is(err, gerrors.ErrNotFound))

	_, err = svc.Decompile(ctx, DecompileRequest{Environment: "DV920", Events: []string{bfEvent}, TemplateName: "NOPE"})
	assert.True(t, errors.Is(err, gerrors.ErrNotFound))

	_, err = svc.Decompile(ctx, DecompileRequest{Events: []string{"<EVENT/>"}})
	assert.True(t, errors.Is(err, gerrors.ErrMalformedDocument))
}

func TestDecompileBatch(t *testing.T) {
	svc := newTestService(t)

	reqs := []DecompileRequest{
		{ID: "ok", Events: []string{bfEvent}, TemplateName: "D4200310A"},
		{ID: "broken", Events: []string{"<EVENT/>"}},
		{Events: []string{`<EVENT szEventSpecKey="EV-C"><GBRCOMMENT comment_text="hello"/></EVENT>`}},
	}
	batch, err := svc.DecompileBatch(context.Background(), "DV920", reqs)
	require.NoError(t, err)

	assert.NotEmpty(t, batch.BatchID)
	require.Len(t, batch.Items, 3)
	assert.Equal(t, 1, batch.Failed)

	assert.Equal(t, "ok", batch.Items[0].ID)
	require.NotNil(t, batch.Items[0].Result)
	assert.Equal(t, "EV-BF", batch.Items[0].Result.RootEventSpecKey)

	assert.Equal(t, "broken", batch.Items[1].ID)
	assert.Nil(t, batch.Items[1].Result)
	assert.Contains(t, batch.Items[1].Error, "malformed")

	assert.NotEmpty(t, batch.Items[2].ID, "missing ids are generated")
	assert.Equal(t, "hello\n", batch.Items[2].Result.ReadableText)
}

func TestDecompileBatch_Empty(t *testing.T) {
	_, err := NewDecompileService(nil).DecompileBatch(context.Background(), "", nil)
	assert.True(t, errors.Is(err, gerrors.ErrInvalidInput))
}

func TestDecompileBatch_Cancelled(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DecompileBatch(ctx, "DV920", []DecompileRequest{{Events: []string{bfEvent}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTemplates(t *testing.T) {
	svc := newTestService(t)

	all, err := svc.ListTemplates("DV920", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []TemplateMatch{{Name: "D0000010"}, {Name: "D4200310A"}}, all)

	found, err := svc.ListTemplates("DV920", "d42", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "D4200310A", found[0].Name)

	_, err = svc.ListTemplates("", "", 0)
	assert.True(t, errors.Is(err, gerrors.ErrInvalidInput))

	view, err := svc.GetTemplate(context.Background(), "DV920", "D0000010")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "mnNextNumber", view.Items[0].Name)
}
