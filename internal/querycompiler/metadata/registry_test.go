package metadata

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
)

func mustLoadFixture(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadFile("testdata/entities.yaml", "")
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	return reg
}

func TestPhysicalNamePrefersSearchOverLifecycleOverNested(t *testing.T) {
	t.Parallel()
	require.Equal(t, "searchForName", Property{Name: "name", Searchable: true, Lifecycle: true}.PhysicalName())
	require.Equal(t, "lifecycleForCreatedAt", Property{Name: "createdAt", Lifecycle: true, Nested: true}.PhysicalName())
	require.Equal(t, "nestedForOrders", Property{Name: "orders", Nested: true}.PhysicalName())
	require.Equal(t, "age", Property{Name: "age"}.PhysicalName())
}

func TestResolveMapsPlainAndSearchableProperties(t *testing.T) {
	t.Parallel()
	reg := mustLoadFixture(t)

	f, err := reg.Resolve("user", "age")
	require.NoError(t, err)
	require.Equal(t, Field{Name: "age"}, f)

	f, err = reg.Resolve("user", "name")
	require.NoError(t, err)
	require.Equal(t, "searchForName", f.Name)
	require.True(t, f.Phrase)
}

func TestResolveRecursesIntoNestedRelatedType(t *testing.T) {
	t.Parallel()
	reg := mustLoadFixture(t)

	f, err := reg.Resolve("user", "orders.title")
	require.NoError(t, err)
	require.Equal(t, "nestedForOrders.searchForTitle", f.Name)
	require.True(t, f.Phrase)

	f, err = reg.Resolve("user", "orders")
	require.NoError(t, err)
	require.Equal(t, "nestedForOrders", f.Name)
	require.Equal(t, "order", f.RelatedType)
}

func TestResolvePassesObjectSubPathAndEngineFields(t *testing.T) {
	t.Parallel()
	reg := mustLoadFixture(t)

	f, err := reg.Resolve("user", "address.zip.code")
	require.NoError(t, err)
	require.Equal(t, "address.zip.code", f.Name)

	f, err = reg.Resolve("user", "_id")
	require.NoError(t, err)
	require.Equal(t, "_id", f.Name)
}

func TestResolveUnknownPropertyFails(t *testing.T) {
	t.Parallel()
	reg := mustLoadFixture(t)

	_, err := reg.Resolve("user", "nickname")
	var fe *qcerrors.FieldResolutionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "nickname", fe.Property)

	_, err = reg.Resolve("user", "age.years")
	require.True(t, errors.As(err, &fe))

	_, err = reg.Resolve("user", "orders.discount")
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "order", fe.EntityType)
}

func TestResolveNestedIntoUnregisteredTypeIsAFieldError(t *testing.T) {
	t.Parallel()
	reg, err := NewRegistry(EntityType{Name: "user", Properties: []Property{
		{Name: "items", Nested: true, RelatedType: "item"},
	}})
	require.NoError(t, err)

	_, err = reg.Resolve("user", "items.sku")
	var fe *qcerrors.FieldResolutionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "user", fe.EntityType)
	require.Equal(t, "items.sku", fe.Property)
	require.False(t, common.IsErrNotFound(err))
	require.True(t, qcerrors.IsCompileError(err))
}

func TestResolveUnknownEntityIsNotFound(t *testing.T) {
	t.Parallel()
	reg := mustLoadFixture(t)

	_, err := reg.Resolve("invoice", "id")
	require.Error(t, err)
	require.True(t, common.IsErrNotFound(err))
	require.True(t, errors.Is(err, qcerrors.ErrEntityTypeNotFound))
}

func TestLifecycleField(t *testing.T) {
	t.Parallel()
	reg := mustLoadFixture(t)

	lf, err := reg.LifecycleField("user")
	require.NoError(t, err)
	require.Equal(t, "lifecycleForCreatedAt", lf.Name)
	require.Equal(t, 720*time.Hour, lf.Retention)

	_, err = reg.LifecycleField("order")
	require.ErrorIs(t, err, qcerrors.ErrNoLifecycleField)
}

func TestRegisterRejectsInvalidDefinitions(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(EntityType{Name: "x", Properties: []Property{
		{Name: "a", Lifecycle: true},
		{Name: "b", Lifecycle: true},
	}})
	require.Error(t, err)

	_, err = NewRegistry(EntityType{Name: "x", Properties: []Property{{Name: "a", Nested: true}}})
	require.Error(t, err)

	_, err = NewRegistry(EntityType{Name: "x"}, EntityType{Name: "x"})
	require.ErrorIs(t, err, qcerrors.ErrEntityTypeAlreadyRegistered)
}

func TestLoadRejectsDocumentFailingSchema(t *testing.T) {
	t.Parallel()

	_, err := Load([]byte("entities:\n  - name: user\n    properties:\n      - name: a\n        colour: red\n"), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "metadata invalid")
}

func TestRegistryServesConcurrentReaders(t *testing.T) {
	t.Parallel()
	reg := mustLoadFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := reg.Resolve("user", "orders.price")
			require.NoError(t, err)
			require.Equal(t, "nestedForOrders.price", f.Name)
		}()
	}
	wg.Wait()
	require.Equal(t, []string{"order", "user"}, reg.Names())
}
