package testapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/launchdarkly/app-test-harness/app"
	"github.com/launchdarkly/app-test-harness/appenv"
	"github.com/launchdarkly/app-test-harness/harness"
	"github.com/launchdarkly/app-test-harness/muxapp"
	"github.com/launchdarkly/app-test-harness/transaction"
)

// Class is the application class name to use in an entry descriptor.
const Class = "testapp.Notes"

// Configuration properties.
const (
	ConfigDSN      = "dsn"
	ConfigHostInfo = "hostInfo"
)

// LanguageHostTemplate is the route template of the per-language sites.
const LanguageHostTemplate = "{lang:en|fr}.notes.test"

const createNotesTable = `CREATE TABLE IF NOT EXISTS notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	body TEXT NOT NULL
)`

// Note is one stored note.
type Note struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

type notesApp struct {
	db *transaction.SQLConnection
}

// NewApplication is the app.Factory for Class.
func NewApplication(settings app.Settings, opts app.BootOptions) (app.Application, error) {
	dsn := settings.Config.Get(ConfigDSN).StringValue()
	if dsn == "" {
		return nil, fmt.Errorf("%q is not set", ConfigDSN)
	}
	hostInfo := settings.Config.Get(ConfigHostInfo).StringValue()
	if hostInfo == "" {
		hostInfo = hostInfoFromVars(opts.ServerVars)
	}

	ctx := context.Background()
	db, err := transaction.OpenSQL(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createNotesTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	n := &notesApp{db: db}
	router := mux.NewRouter()
	router.Host(LanguageHostTemplate).HandlerFunc(n.serveLanguageHome).Methods("GET")
	router.HandleFunc("/notes", n.listNotes).Methods("GET")
	router.HandleFunc("/notes", n.createNote).Methods("POST")
	router.HandleFunc("/notes/{id:[0-9]+}", n.getNote).Methods("GET")
	router.HandleFunc("/visits", n.countVisit).Methods("GET")
	router.HandleFunc("/server", n.serveServerVars).Methods("GET")

	return muxapp.New(router, hostInfo,
		muxapp.WithComponent(app.DBComponent, db),
		muxapp.WithCloser(db.Close),
	)
}

func hostInfoFromVars(vars appenv.Vars) string {
	scheme := "http"
	if vars.Get(appenv.VarHTTPS) == "on" {
		scheme = "https"
	}
	host := vars.Get(appenv.VarServerName)
	if port := vars.Get(appenv.VarServerPort); port != "" && port != appenv.DefaultServerPort {
		host += ":" + port
	}
	return scheme + "://" + host
}

func (n *notesApp) listNotes(w http.ResponseWriter, r *http.Request) {
	rows, err := n.db.QueryContext(r.Context(), "SELECT id, body FROM notes ORDER BY id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close() //nolint:errcheck
	notes := []Note{}
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.Body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// createNote stores a note. If the form has commit=true, the application commits whatever
// transaction is open, as an application that manages its own transactions would.
func (n *notesApp) createNote(w http.ResponseWriter, r *http.Request) {
	body := r.PostFormValue("body")
	if body == "" {
		http.Error(w, "body is required", http.StatusBadRequest)
		return
	}
	result, err := n.db.ExecContext(r.Context(), "INSERT INTO notes (body) VALUES (?)", body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	id, _ := result.LastInsertId()
	if r.PostFormValue("commit") == "true" && n.db.InTransaction() {
		if err := n.db.Commit(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Location", "/notes/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, Note{ID: id, Body: body})
}

func (n *notesApp) getNote(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var note Note
	err := n.db.QueryRowContext(r.Context(), "SELECT id, body FROM notes WHERE id = ?", id).Scan(&note.ID, &note.Body)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// countVisit counts requests in the session and reports the count in a cookie and the body.
func (n *notesApp) countVisit(w http.ResponseWriter, r *http.Request) {
	rc, ok := harness.RequestContextFrom(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	count := 1
	if v, ok := rc.SessionValue("visits"); ok {
		count = v.(int) + 1
	}
	rc.SetSessionValue("visits", count)
	http.SetCookie(w, &http.Cookie{Name: "visits", Value: strconv.Itoa(count), Path: "/"})
	writeJSON(w, http.StatusOK, map[string]int{"visits": count})
}

func (n *notesApp) serveServerVars(w http.ResponseWriter, r *http.Request) {
	vars := harness.ServerVarsFrom(r.Context())
	ret := make(map[string]string)
	for _, k := range []string{
		appenv.VarScriptFilename, appenv.VarScriptName, appenv.VarServerName, appenv.VarServerPort,
		appenv.VarHTTPS, appenv.VarRequestMethod, appenv.VarRequestURI,
	} {
		ret[k] = vars.Get(k)
	}
	ret["TLS"] = strconv.FormatBool(r.TLS != nil)
	writeJSON(w, http.StatusOK, ret)
}

func (n *notesApp) serveLanguageHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(mux.Vars(r)["lang"]))
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
