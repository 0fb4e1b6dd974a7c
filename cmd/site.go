package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/cms"
	"github.com/gutachten-org/sitekit/internal/config"
	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/grounding"
	"github.com/gutachten-org/sitekit/internal/sitemap"
)

// siteEnv is everything a command needs to resolve one site's pages.
type siteEnv struct {
	site      *api.Site
	dir       string
	root      billy.Filesystem
	files     *cms.FileManager
	resolver  *content.Resolver
	grounding *grounding.Source
}

func loadSites() (config.Sites, error) {
	return config.LoadSites(settings.SitesFile)
}

// selectSite picks the site named by id, falling back to the configured site id.
func selectSite(sites config.Sites, id string) (*api.Site, error) {
	if id == "" {
		id = settings.SiteID
	}
	return sites.Select(id)
}

// publicFS is the output directory of generated files.
func publicFS() billy.Filesystem {
	return osfs.New(settings.PublicDir)
}

// openSite registers the site's local content tree behind the CMS file manager.
func openSite(s *api.Site, observe func(string, cms.Source)) (*siteEnv, error) {
	dir := filepath.Join(settings.ContentDir, s.ID)
	root := osfs.New(dir)

	registry := content.NewRegistry()
	n, err := registry.RegisterFS(root)
	if err != nil {
		return nil, fmt.Errorf("register content of %s: %w", s.ID, err)
	}
	logger.Debug("registered content", zap.String("site", s.ID), zap.String("dir", dir), zap.Int("files", n))

	files := cms.New(cms.Options{
		BaseURL:    settings.CMS.BaseURL,
		HTTPClient: &http.Client{Timeout: settings.CMS.Timeout},
		Cache:      cms.NewCache(settings.CMS.CacheSize, settings.CMS.CacheTTL),
		Local:      registry,
		Logger:     logger,
		Observe:    observe,
	})

	return &siteEnv{
		site:      s,
		dir:       dir,
		root:      root,
		files:     files,
		resolver:  content.NewResolver(files.AsSource(), s.Programmatic.SlugOverrides, logger),
		grounding: grounding.NewSource(publicFS(), sitemap.LLMTxtPath),
	}, nil
}
