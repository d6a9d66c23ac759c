package main

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushchat/internal/crypto"
	"pushchat/internal/domain"
)

type memoryStore struct {
	mu     sync.RWMutex
	regs   map[domain.Handle]domain.RegistrationBundle
	queues map[domain.Handle][]domain.Envelope
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		regs:   make(map[domain.Handle]domain.RegistrationBundle),
		queues: make(map[domain.Handle][]domain.Envelope),
	}
}

func (ms *memoryStore) register(b domain.RegistrationBundle) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, h := range b.Handles {
		ms.regs[h] = b
	}
}

func (ms *memoryStore) registration(h domain.Handle) (domain.RegistrationBundle, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	b, ok := ms.regs[h]
	return b, ok
}

func (ms *memoryStore) enqueue(env domain.Envelope) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.queues[env.To] = append(ms.queues[env.To], env)
}

func (ms *memoryStore) peek(h domain.Handle, limit int) []domain.Envelope {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	q := ms.queues[h]
	if limit <= 0 || limit > len(q) {
		limit = len(q)
	}
	return append([]domain.Envelope{}, q[:limit]...)
}

func (ms *memoryStore) ack(h domain.Handle, n int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	q := ms.queues[h]
	if n >= len(q) {
		delete(ms.queues, h)
		return
	}
	ms.queues[h] = append([]domain.Envelope(nil), q[n:]...)
}

var errBadSignature = errors.New("registration signature does not verify")

func verifyBundle(b domain.RegistrationBundle) error {
	if b.UserID == "" || len(b.Handles) == 0 {
		return errors.New("registration needs a user id and at least one handle")
	}
	if !crypto.VerifyEd25519(b.SigningKey, b.SignedBytes(), b.Signature) {
		return errBadSignature
	}
	return nil
}

func newServer(ms *memoryStore) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var b domain.RegistrationBundle
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := verifyBundle(b); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBadSignature) {
				status = http.StatusUnauthorized
			}
			http.Error(w, err.Error(), status)
			return
		}
		ms.register(b)
		logrus.WithFields(logrus.Fields{
			"function": "register",
			"user_id":  b.UserID,
			"handles":  b.Handles,
			"token":    b.PushToken,
		}).Info("Stored registration")
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /msg/{handle}", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var env domain.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		env.To = domain.Handle(r.PathValue("handle"))
		if env.ID == "" {
			env.ID = uuid.NewString()
		}
		if env.Timestamp == 0 {
			env.Timestamp = time.Now().UnixMilli()
		}
		ms.enqueue(env)
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /msg/{handle}", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ms.peek(domain.Handle(r.PathValue("handle")), limit))
	})

	mux.HandleFunc("POST /msg/{handle}/ack", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var body struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count < 0 {
			http.Error(w, "bad ack", http.StatusBadRequest)
			return
		}
		ms.ack(domain.Handle(r.PathValue("handle")), body.Count)
		w.WriteHeader(http.StatusOK)
	})

	return accessLog(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"status":   rec.status,
			"bytes":    rec.bytes,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	logrus.WithField("addr", *addr).Info("relay listening")
	srv := &http.Server{
		Addr:              *addr,
		Handler:           newServer(newMemoryStore()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logrus.WithError(err).Fatal("relay stopped")
	}
}
