package echohttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/core/service/download"
	"example.com/gotorrent/lib/core/service/peerlist"
	"example.com/gotorrent/lib/logger"
)

var l_echohttp = logger.Named("echohttp")

type HTTPServe struct {
	Metadata domain.Metadata
	Hosts    peerlist.Service
	Download download.Service

	e          *echo.Echo
	pieceRoute string
}

func allows(s []string) func(c echo.Context) error {
	return func(c echo.Context) error {
		methods := strings.Join(s, ",")
		c.Response().Header().Set("Allow", methods)
		c.Response().WriteHeader(200)
		return nil
	}
}

// Echo builds the router. It is separate from Start so handlers can be
// driven through ServeHTTP.
func (h *HTTPServe) Echo() *echo.Echo {
	if h.e != nil {
		return h.e
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLog)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"localhost"},
		AllowCredentials: true,
		AllowOriginFunc:  func(_ string) (bool, error) { return true, nil },
		ExposeHeaders:    []string{"Allow"},
	}))
	e.Add("GET", "/health", h.health)
	e.GET("/metadata", h.metadata)
	e.GET("/peers", h.peers)
	h.pieceRoute = e.GET("/pieces/:index", h.piece).Name
	e.HEAD("/pieces/:index", allows([]string{"get"}))
	h.e = e
	return e
}

// Start serves on addr until Shutdown.
func (h *HTTPServe) Start(addr string) error {
	l_echohttp.Sugar().Infow("listening", "addr", addr)
	err := h.Echo().Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (h *HTTPServe) Shutdown(ctx context.Context) error {
	return h.Echo().Shutdown(ctx)
}

func requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		l_echohttp.Sugar().Debugw("request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"latency", time.Since(start).String(),
		)
		return nil
	}
}

func (h *HTTPServe) health(c echo.Context) error {
	return c.JSON(200, "OK")
}

type metadataResp struct {
	Announce    string   `json:"announce"`
	Trackers    []string `json:"trackers"`
	CreatedBy   string   `json:"created_by,omitempty"`
	Name        string   `json:"name"`
	Length      int64    `json:"length"`
	InfoHash    string   `json:"info_hash"`
	PieceLength int64    `json:"piece_length"`
	PieceHashes []string `json:"piece_hashes"`
	Pieces      []string `json:"pieces"`
}

func (h *HTTPServe) metadata(c echo.Context) error {
	m := h.Metadata
	resp := metadataResp{
		Announce:    m.Announce,
		Trackers:    m.Trackers(),
		CreatedBy:   m.CreatedBy,
		Name:        m.Info.Name,
		Length:      m.Info.Length,
		InfoHash:    m.InfoHash.String(),
		PieceLength: m.Info.PieceLength,
	}
	for i, ph := range m.PieceHashes() {
		resp.PieceHashes = append(resp.PieceHashes, fmt.Sprintf("%x", ph))
		resp.Pieces = append(resp.Pieces, c.Echo().Reverse(h.pieceRoute, i))
	}
	return c.JSON(http.StatusOK, resp)
}

type peersResp struct {
	Peers []string `json:"peers"`
}

func (h *HTTPServe) peers(c echo.Context) error {
	if h.Hosts == nil {
		return c.String(http.StatusServiceUnavailable, "peer list not available")
	}
	get := h.Hosts.GetHosts
	if c.QueryParam("refresh") == "1" {
		get = h.Hosts.Refresh
	}
	hosts, err := get(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	resp := peersResp{Peers: make([]string, 0, len(hosts))}
	for _, host := range hosts {
		resp.Peers = append(resp.Peers, host.String())
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *HTTPServe) piece(c echo.Context) error {
	if h.Download == nil {
		return c.String(http.StatusServiceUnavailable, "download not available")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid piece index")
	}
	if _, err := h.Metadata.PieceSize(index); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	piece, err := h.Download.FetchPiece(c.Request().Context(), index)
	if err != nil {
		var ierr *domain.IntegrityError
		if errors.As(err, &ierr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	ph, _ := h.Metadata.PieceHash(index)
	c.Response().Header().Set("X-Piece-Hash", fmt.Sprintf("%x", ph))
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, piece.Data)
}
