package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultShutdownDeadline = 10 * time.Second

	defaultSubnet = "192.168.1"
)

var ErrUnexpected = errors.New("unexpected server error")

// Registry exposes the connection counts shown by the status endpoint.
type Registry interface {
	Counts() (cameras, viewers int)
}

type StatusResponse struct {
	OK      bool   `json:"ok"`
	MyIP    string `json:"myIp"`
	Subnet  string `json:"subnet"`
	Cameras int    `json:"cameras"`
	Viewers int    `json:"viewers"`
}

// Server serves the dashboard's small status API.
type Server struct {
	logger zerolog.Logger
	reg    Registry
	*http.Server
}

type Config struct {
	Logger     *zerolog.Logger
	Registry   Registry
	ListenAddr string
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		logger: cfg.Logger.With().Str("component", "api-server").Logger(),
		reg:    cfg.Registry,
	}

	r := http.NewServeMux()
	r.HandleFunc("GET /api/status", srv.status)
	r.HandleFunc("OPTIONS /", corsHandler)

	srv.Server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	return srv
}

func corsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) status(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	subnet, myIP := localNetwork()
	cameras, viewers := srv.reg.Counts()

	b, err := json.Marshal(&StatusResponse{
		OK:      true,
		MyIP:    myIP,
		Subnet:  subnet,
		Cameras: cameras,
		Viewers: viewers,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeBytes(w, http.StatusOK, b)
}

// localNetwork reports the host's first non-loopback IPv4 address and its
// /24 subnet prefix, the network the dashboard's devices live on.
func localNetwork() (subnet, myIP string) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return defaultSubnet, ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			parts := strings.Split(ip4.String(), ".")
			return strings.Join(parts[:3], "."), ip4.String()
		}
	}
	return defaultSubnet, ""
}

func writeBytes(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	hErr := make(chan error)
	go func() {
		hErr <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-hErr:
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Join(ErrUnexpected, err)
		}
	case <-ctx.Done():
		shCtx, shCancel := context.WithTimeout(context.Background(), defaultShutdownDeadline)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			srv.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
}
