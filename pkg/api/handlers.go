package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/koshadb/pkg/semantics"
)

const (
	defaultPrefixLimit = 100
	maxPrefixLimit     = 1000
)

// Server holds the API server state
type Server struct {
	lexicon Lexicon
	config  ServerConfig
	metrics *Metrics
	cache   *lookupCache
	log     logrus.FieldLogger
}

// NewServer creates a new API server
func NewServer(lexicon Lexicon, config ServerConfig, metrics *Metrics, logger logrus.FieldLogger) (*Server, error) {
	cache, err := newLookupCache(config.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Server{
		lexicon: lexicon,
		config:  config,
		metrics: metrics,
		cache:   cache,
		log:     logger,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func pathParam(r *http.Request, name string) (string, error) {
	return url.PathUnescape(chi.URLParam(r, name))
}

func (s *Server) handleGetPadas(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := pathParam(r, "key")
	if err != nil || key == "" {
		s.metrics.RecordLookup("get", false, time.Since(start))
		sendError(w, "Invalid key", http.StatusBadRequest)
		return
	}

	if resp, ok := s.cache.get(key); ok {
		s.metrics.RecordCache(true)
		s.metrics.RecordLookup("get", true, time.Since(start))
		sendSuccess(w, resp)
		return
	}
	s.metrics.RecordCache(false)

	if !s.lexicon.ContainsKey(key) {
		s.metrics.RecordLookup("get", false, time.Since(start))
		sendError(w, "Key not found", http.StatusNotFound)
		return
	}

	padas, err := s.lexicon.GetAllPadas(key)
	resp := &PadasResponse{Key: key, Padas: make([]interface{}, 0, len(padas))}
	for _, p := range padas {
		resp.Padas = append(resp.Padas, semantics.PadaJSON(p))
	}
	if err != nil {
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				resp.Errors = append(resp.Errors, e.Error())
			}
		} else {
			resp.Errors = append(resp.Errors, err.Error())
		}
		s.log.WithError(err).WithField("key", key).Warn("undecodable records")
	}

	if len(resp.Padas) == 0 && len(resp.Errors) > 0 {
		s.metrics.RecordLookup("get", false, time.Since(start))
		sendError(w, "Stored records could not be decoded", http.StatusInternalServerError)
		return
	}

	s.cache.add(key, resp)
	s.metrics.RecordLookup("get", true, time.Since(start))
	sendSuccess(w, resp)
}

func (s *Server) handleContains(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := pathParam(r, "key")
	if err != nil {
		s.metrics.RecordLookup("contains", false, time.Since(start))
		sendError(w, "Invalid key", http.StatusBadRequest)
		return
	}

	resp := ContainsResponse{
		Key:    key,
		Exists: s.lexicon.ContainsKey(key),
		Prefix: s.lexicon.ContainsPrefix(key),
	}
	s.metrics.RecordLookup("contains", true, time.Since(start))
	sendSuccess(w, resp)
}

func (s *Server) handlePrefix(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	prefix, err := pathParam(r, "prefix")
	if err != nil {
		s.metrics.RecordLookup("prefix", false, time.Since(start))
		sendError(w, "Invalid prefix", http.StatusBadRequest)
		return
	}

	limit := defaultPrefixLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.metrics.RecordLookup("prefix", false, time.Since(start))
			sendError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxPrefixLimit)
	}

	keys := s.lexicon.KeysWithPrefix(prefix, limit)
	if keys == nil {
		keys = []string{}
	}
	s.metrics.RecordLookup("prefix", true, time.Since(start))
	sendSuccess(w, PrefixResponse{Prefix: prefix, Keys: keys, Limit: limit})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	m := s.lexicon.Manifest()
	stats := StatsResponse{
		BuildID:          m.BuildID,
		CreatedAt:        m.CreatedAt,
		Keys:             s.lexicon.Len(),
		Records:          s.lexicon.Records(),
		DataSize:         m.DataSize,
		IndexSize:        m.IndexSize,
		IndexCompression: m.IndexCompression,
	}
	s.metrics.UpdateKoshaStats(stats.Keys, stats.Records)
	sendSuccess(w, stats)
}
