package api

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

var pageFiles = map[string]string{
	"/":         "index.html",
	"/login":    "login.html",
	"/register": "register.html",
	"/recover":  "recover.html",
	"/product":  "product.html",
	"/cart":     "cart.html",
	"/confirm":  "confirm.html",
}

// mountPages serves the storefront from PublicDir: named page routes plus
// any other file under the directory. Unknown paths get a JSON 404.
func (s *Server) mountPages(r *gin.Engine) {
	dir := s.opt.PublicDir
	if dir != "" {
		for route, file := range pageFiles {
			r.StaticFile(route, filepath.Join(dir, file))
		}
	}
	r.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if dir != "" && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) &&
			!strings.HasPrefix(p, "/api/") && isFile(dir, p) {
			c.FileFromFS(path.Clean(p), http.Dir(dir))
			return
		}
		respondMessage(c, http.StatusNotFound, "Ruta no encontrada")
	})
}

// isFile reports whether urlPath names a regular, non-hidden file under dir.
func isFile(dir, urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	if strings.Contains(clean, "/.") {
		return false
	}
	f, err := http.Dir(dir).Open(clean)
	if err != nil {
		return false
	}
	defer f.Close()
	st, err := f.Stat()
	return err == nil && st.Mode().IsRegular()
}
