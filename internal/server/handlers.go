package server

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/mdview/internal/library"
	"github.com/ziadkadry99/mdview/internal/render"
	"github.com/ziadkadry99/mdview/internal/view"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveFile validates the filename route param and resolves it against
// the library. Non-markdown names are a 400, missing files a 404.
func (s *Server) resolveFile(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "filename")
	if !library.IsMarkdown(name) {
		writeError(w, http.StatusBadRequest, "not a markdown file")
		return "", false
	}
	if _, err := s.lib.Resolve(name); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return "", false
	}
	return name, true
}

type indexData struct {
	Dir    string
	Groups []indexGroup
	Recent []recentEntry
}

type indexGroup struct {
	Name  string
	Files []library.FileInfo
}

type recentEntry struct {
	Name  string
	Count int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	files, err := s.lib.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	groups, err := s.lib.LoadGroups()
	if err != nil {
		log.Printf("server: loading groups: %v", err)
		groups = nil
	}

	data := indexData{Dir: s.lib.Root}
	if len(groups) > 0 {
		grouped := library.GroupsWithUnconfigured(groups, files)
		// Group entries are basenames without extension.
		byName := make(map[string]library.FileInfo, len(files))
		for _, f := range files {
			base := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
			byName[base] = f
		}
		names := make([]string, 0, len(grouped))
		for name := range grouped {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			g := indexGroup{Name: name}
			for _, base := range grouped[name] {
				if f, ok := byName[base]; ok {
					g.Files = append(g.Files, f)
				}
			}
			if len(g.Files) > 0 {
				data.Groups = append(data.Groups, g)
			}
		}
	} else {
		data.Groups = []indexGroup{{Name: "", Files: files}}
	}

	if s.hist != nil {
		counts, err := s.hist.Counts()
		if err == nil {
			entries, err := s.hist.Recent(10)
			if err == nil {
				for _, e := range entries {
					data.Recent = append(data.Recent, recentEntry{Name: e.Path, Count: counts[e.Path]})
				}
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("server: rendering index: %v", err)
	}
}

type viewerData struct {
	Name            string
	RefreshMs       int
	FrontmatterHTML template.HTML
	ContentHTML     template.HTML
	TOC             []render.Heading
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resolveFile(w, r)
	if !ok {
		return
	}

	res, err := s.renderFile(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if s.hist != nil {
		if err := s.hist.RecordView(name); err != nil {
			log.Printf("server: recording view: %v", err)
		}
	}

	content, err := s.annotate(res.HTML)
	if err != nil {
		log.Printf("server: annotating %s: %v", name, err)
		content = res.HTML
	}

	data := viewerData{
		Name:            name,
		RefreshMs:       s.cfg.RefreshIntervalMs,
		FrontmatterHTML: template.HTML(res.FrontmatterHTML),
		ContentHTML:     template.HTML(content),
		TOC:             res.TOC,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewerTmpl.Execute(w, data); err != nil {
		log.Printf("server: rendering viewer: %v", err)
	}
}

// annotate runs the annotation pipeline over a rendered fragment and
// returns the annotated markup.
func (s *Server) annotate(fragment string) (string, error) {
	doc, err := view.ParseDocument(`<div class="` + view.ContentRootClass + `">` + fragment + `</div>`)
	if err != nil {
		return "", err
	}
	if err := s.pipeline.Annotate(doc); err != nil {
		return "", err
	}
	root := view.FindByClass(doc, view.ContentRootClass)
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		rendered, err := view.RenderHTML(c)
		if err != nil {
			return "", err
		}
		b.WriteString(rendered)
	}
	return b.String(), nil
}

func (s *Server) renderFile(name string) (*render.Result, error) {
	src, err := s.lib.Read(name)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(src)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.lib.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []library.FileInfo{}
	}
	// Probe endpoint: replies must never come from a cache.
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resolveFile(w, r)
	if !ok {
		return
	}
	res, err := s.renderFile(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	mod, err := s.lib.ModTime(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"html":     res.HTML,
		"modified": mod.Unix(),
	})
}

func (s *Server) handleFileMarkdown(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resolveFile(w, r)
	if !ok {
		return
	}
	src, err := s.lib.Read(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	mod, err := s.lib.ModTime(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"markdown": string(src),
		"modified": mod.Unix(),
	})
}

func (s *Server) handleFileHTML(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resolveFile(w, r)
	if !ok {
		return
	}
	res, err := s.renderFile(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	mod, err := s.lib.ModTime(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"frontmatter_html": res.FrontmatterHTML,
		"content_html":     res.HTML,
		"modified":         mod.Unix(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []any{}})
		return
	}
	entries, err := s.hist.Recent(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleClipboard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Adapter failures are reflected in ok, never as a 5xx.
	ok := s.clip.Copy(req.Text)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
