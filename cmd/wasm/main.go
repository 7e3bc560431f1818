//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall/js"

	"github.com/hack-pad/go-indexeddb/idb"
	"github.com/hack-pad/hackpadfs/indexeddb"
	"github.com/kittclouds/contactkitt/internal/snapshot"
	"github.com/kittclouds/contactkitt/internal/store"
)

// Version info
const Version = "0.1.0"

var errNotInitialized = errors.New("contact database not initialized: call initDb() first")

// app owns the store behind the ContactDB exports.
type app struct {
	mu    sync.RWMutex
	store store.Storer
}

// initOptions mirrors the optional object passed to initDb.
type initOptions struct {
	Backend    string `json:"backend"` // "idb" | "file"
	Database   string `json:"database"`
	Collection string `json:"collection"`
	LogLevel   string `json:"logLevel"`
}

func main() {
	a := &app{}
	println("[ContactKitt] WASM Ready v" + Version)

	// Register exports
	js.Global().Set("ContactDB", js.ValueOf(map[string]interface{}{
		"version":  js.FuncOf(getVersion),
		"initDb":   js.FuncOf(a.initDb),
		"getDb":    js.FuncOf(a.getDb),
		"postDb":   js.FuncOf(a.postDb),
		"deleteDb": js.FuncOf(a.deleteDb),
		"editDb":   js.FuncOf(a.editDb),
		"exportDb": js.FuncOf(a.exportDb),
		"importDb": js.FuncOf(a.importDb),
	}))

	select {}
}

func (a *app) current() (store.Storer, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.store == nil {
		return nil, errNotInitialized
	}
	return a.store, nil
}

// initDb opens the contact database, creating the contacts store on first use.
// Args: [options object (optional)] {backend, database, collection, logLevel}
func (a *app) initDb(this js.Value, args []js.Value) interface{} {
	opts := initOptions{
		Backend:    "idb",
		Database:   store.DefaultDatabaseName,
		Collection: store.DefaultCollectionName,
		LogLevel:   "info",
	}
	if len(args) > 0 && args[0].Type() == js.TypeObject {
		raw := js.Global().Get("JSON").Call("stringify", args[0]).String()
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			return rejected("invalid options: " + err.Error())
		}
	}

	return promise(func(ctx context.Context) (interface{}, error) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(opts.LogLevel))); err != nil {
			return nil, fmt.Errorf("invalid logLevel %q", opts.LogLevel)
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

		var backend store.Storer
		switch opts.Backend {
		case "idb":
			backend = store.NewIDBStore(idb.Global(), opts.Database, opts.Collection)
		case "file":
			// hackpadfs keeps its own IndexedDB database; keep it apart from the idb backend's.
			fs, err := indexeddb.NewFS(ctx, opts.Database+"_fs", indexeddb.Options{})
			if err != nil {
				return nil, fmt.Errorf("failed to create idb fs: %w", err)
			}
			backend = store.NewFileStore(fs, opts.Database, opts.Collection)
		default:
			return nil, fmt.Errorf("unknown backend %q", opts.Backend)
		}

		s := store.WithTrace(backend, logger)
		if err := s.Init(ctx); err != nil {
			s.Close()
			return nil, err
		}

		a.mu.Lock()
		if a.store != nil {
			a.store.Close()
		}
		a.store = s
		a.mu.Unlock()

		return successResult("initialized"), nil
	})
}

// getDb resolves with every contact.
func (a *app) getDb(this js.Value, args []js.Value) interface{} {
	return promise(func(ctx context.Context) (interface{}, error) {
		s, err := a.current()
		if err != nil {
			return nil, err
		}
		contacts, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResult(contacts)
	})
}

// postDb: [name, email, phone, profile]
// Resolves with the stored contact, including its new id.
func (a *app) postDb(this js.Value, args []js.Value) interface{} {
	c := &store.Contact{
		Name:    argString(args, 0),
		Email:   argString(args, 1),
		Phone:   argString(args, 2),
		Profile: argString(args, 3),
	}
	if err := c.Validate(); err != nil {
		return rejected(err.Error())
	}

	return promise(func(ctx context.Context) (interface{}, error) {
		s, err := a.current()
		if err != nil {
			return nil, err
		}
		if _, err := s.Insert(ctx, c); err != nil {
			return nil, err
		}
		return jsonResult(c)
	})
}

// deleteDb: [id]
func (a *app) deleteDb(this js.Value, args []js.Value) interface{} {
	id, err := argID(args, 0)
	if err != nil {
		return rejected(err.Error())
	}

	return promise(func(ctx context.Context) (interface{}, error) {
		s, err := a.current()
		if err != nil {
			return nil, err
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return js.Undefined(), nil
	})
}

// editDb: [id, name, email, phone, profile]
func (a *app) editDb(this js.Value, args []js.Value) interface{} {
	id, err := argID(args, 0)
	if err != nil {
		return rejected(err.Error())
	}
	c := &store.Contact{
		ID:      id,
		Name:    argString(args, 1),
		Email:   argString(args, 2),
		Phone:   argString(args, 3),
		Profile: argString(args, 4),
	}
	if err := c.Validate(); err != nil {
		return rejected(err.Error())
	}

	return promise(func(ctx context.Context) (interface{}, error) {
		s, err := a.current()
		if err != nil {
			return nil, err
		}
		if err := s.Update(ctx, c); err != nil {
			return nil, err
		}
		return jsonResult(c)
	})
}

// exportDb: [format (optional, "json" | "yaml")]
// Resolves with the snapshot text.
func (a *app) exportDb(this js.Value, args []js.Value) interface{} {
	format := "json"
	if s := argString(args, 0); s != "" {
		format = s
	}
	f, err := snapshot.ParseFormat(format)
	if err != nil {
		return rejected(err.Error())
	}

	return promise(func(ctx context.Context) (interface{}, error) {
		s, err := a.current()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := snapshot.Export(ctx, s, &buf, f); err != nil {
			return nil, err
		}
		return buf.String(), nil
	})
}

// importDb: [snapshot text, format (optional)]
// Resolves with the number of contacts written.
func (a *app) importDb(this js.Value, args []js.Value) interface{} {
	text := argString(args, 0)
	format := "json"
	if s := argString(args, 1); s != "" {
		format = s
	}
	f, err := snapshot.ParseFormat(format)
	if err != nil {
		return rejected(err.Error())
	}

	return promise(func(ctx context.Context) (interface{}, error) {
		s, err := a.current()
		if err != nil {
			return nil, err
		}
		n, err := snapshot.Import(ctx, s, strings.NewReader(text), f)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// =============================================================================
// Helpers
// =============================================================================

// promise runs fn off the event loop; IndexedDB callbacks cannot fire while
// a js.FuncOf handler is blocked.
func promise(fn func(ctx context.Context) (interface{}, error)) js.Value {
	executor := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve, reject := args[0], args[1]
		go func() {
			result, err := fn(context.Background())
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(result)
		}()
		return nil
	})
	defer executor.Release()
	return js.Global().Get("Promise").New(executor)
}

// rejected returns an already-rejected Promise for argument errors.
func rejected(msg string) js.Value {
	return js.Global().Get("Promise").Call("reject", js.Global().Get("Error").New(msg))
}

// jsonResult converts v to a plain JS value through JSON.
func jsonResult(v interface{}) (interface{}, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return js.Global().Get("JSON").Call("parse", string(jsonBytes)), nil
}

// Helper: Create success result
func successResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"success": msg,
	})
}

func argString(args []js.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	v := args[i]
	switch v.Type() {
	case js.TypeString:
		return v.String()
	case js.TypeUndefined, js.TypeNull:
		return ""
	default:
		return js.Global().Get("JSON").Call("stringify", v).String()
	}
}

func argID(args []js.Value, i int) (int64, error) {
	if i >= len(args) {
		return 0, errors.New("missing id argument")
	}
	v := args[i]
	switch v.Type() {
	case js.TypeNumber:
		f := v.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("invalid id %v: not an integer", f)
		}
		return int64(f), nil
	case js.TypeString:
		id, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid id %q", v.String())
		}
		return id, nil
	}
	return 0, fmt.Errorf("invalid id of type %s", v.Type())
}
