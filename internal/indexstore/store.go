// Package indexstore persists a pathwayindex.Index as a single structured
// document and reloads it with a schema-version check. The document is
// written with an explicit, deterministic top-level key order (meta,
// pathways, nodes, edges) and atomic-replace semantics, so two independent
// builds from identical inputs produce byte-identical files.
//
// Grounded on a reference internal/cache/manager.go shape (JSON document on
// disk, directory created on demand) combined with internal/fetchcache's
// write-temp-then-rename discipline, using tidwall/sjson to sequence the
// top-level keys explicitly rather than leaning on map/struct marshal order,
// and tidwall/gjson to read back just meta.schema_version before committing
// to a full unmarshal of a possibly-incompatible document.
package indexstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

// Persist writes idx to path as a single JSON document with keys ordered
// meta, pathways, nodes, edges (nodes and edges each sorted by id), via a
// temp-file-then-rename so a reader never observes a torn file.
func Persist(path string, idx *pathwayindex.Index) error {
	metaJSON, err := json.Marshal(idx.Meta)
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "marshal index meta", err)
	}
	pathwaysJSON, err := json.Marshal(idx.Pathways)
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "marshal index pathways", err)
	}
	nodesJSON, err := marshalSortedNodes(idx.Nodes)
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "marshal index nodes", err)
	}
	edgesJSON, err := marshalSortedEdges(idx.Edges)
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "marshal index edges", err)
	}

	doc := []byte("{}")
	for _, kv := range []struct {
		key string
		raw []byte
	}{
		{"meta", metaJSON},
		{"pathways", pathwaysJSON},
		{"nodes", nodesJSON},
		{"edges", edgesJSON},
	} {
		doc, err = sjson.SetRawBytes(doc, kv.key, kv.raw)
		if err != nil {
			return pkerrors.Wrap(pkerrors.InternalInvariant, path, "assemble index document key "+kv.key, err)
		}
	}

	// pretty.Pretty gives the document a stable, human-diffable byte layout
	// (sorted-by-insertion-order indentation) independent of how sjson
	// happened to lay out the raw bytes; it is a pure function of doc, so
	// two builds from identical inputs still produce identical files.
	doc = pretty.Pretty(doc)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkerrors.Wrap(pkerrors.BadInput, path, "create index output directory", err)
	}
	return writeAtomic(path, doc)
}

// marshalSortedNodes emits idx.Nodes as a JSON object with keys in sorted
// node-id order, independent of Go's map iteration order.
func marshalSortedNodes(nodes map[pathwayindex.NodeID]pathwayindex.Node) ([]byte, error) {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	doc := []byte("{}")
	var err error
	for _, id := range ids {
		var raw []byte
		raw, err = json.Marshal(nodes[pathwayindex.NodeID(id)])
		if err != nil {
			return nil, err
		}
		doc, err = sjson.SetRawBytes(doc, id, raw)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// marshalSortedEdges is marshalSortedNodes's edge-table counterpart.
func marshalSortedEdges(edges map[pathwayindex.EdgeID]pathwayindex.Edge) ([]byte, error) {
	ids := make([]string, 0, len(edges))
	for id := range edges {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	doc := []byte("{}")
	var err error
	for _, id := range ids {
		var raw []byte
		raw, err = json.Marshal(edges[pathwayindex.EdgeID(id)])
		if err != nil {
			return nil, err
		}
		doc, err = sjson.SetRawBytes(doc, id, raw)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Load reads the index document at path, rejecting it fast (without a full
// unmarshal) if meta.schema_version differs from the version this code
// knows about, and rejecting an absent or malformed meta as a hard error.
func Load(path string) (*pathwayindex.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkerrors.BadInputf(path, "index file not found")
		}
		return nil, pkerrors.Wrap(pkerrors.BadInput, path, "read index file", err)
	}

	metaResult := gjson.GetBytes(data, "meta")
	if !metaResult.Exists() || !metaResult.IsObject() {
		return nil, pkerrors.SchemaMismatchf(path, "index document has no meta object")
	}
	versionResult := metaResult.Get("schema_version")
	if !versionResult.Exists() {
		return nil, pkerrors.SchemaMismatchf(path, "index meta is missing schema_version")
	}
	fileVersion := int(versionResult.Int())
	if fileVersion != pathwayindex.SchemaVersion {
		return nil, pkerrors.SchemaMismatchf(path, "index schema_version %d does not match supported version %d", fileVersion, pathwayindex.SchemaVersion)
	}

	var idx pathwayindex.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, pkerrors.Wrap(pkerrors.SchemaMismatch, path, "unmarshal index document", err)
	}
	return &idx, nil
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by rename, matching internal/fetchcache's write discipline.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "create temp index file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "write temp index file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "close temp index file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, fmt.Sprintf("rename %s into place", tmpName), err)
	}
	return nil
}
