package out

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	documentrpc "docshelf/internal/modules/document/adapter/out/rpc"
	documentout "docshelf/internal/modules/document/port/out"
	apperrors "docshelf/internal/platform/errors"
)

const (
	defaultStartTimeout = 3 * time.Second
	closeTimeout        = 2 * time.Second
)

// RemoteService runs the document service in a plugin process. The process
// is started on first use and lives until Close.
type RemoteService struct {
	binary   string
	validate string
	logger   hclog.Logger

	mu     sync.Mutex
	client *plugin.Client
	rpc    documentrpc.DocumentServiceClient
}

// ValidateEnv carries the validation mode to the plugin process.
const ValidateEnv = "DOCSHELF_VALIDATE"

func NewRemoteService(binary, validate string, logger hclog.Logger) *RemoteService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &RemoteService{binary: binary, validate: validate, logger: logger}
}

// NewRemoteServiceFromClient talks to an already connected service.
func NewRemoteServiceFromClient(client documentrpc.DocumentServiceClient) *RemoteService {
	return &RemoteService{logger: hclog.NewNullLogger(), rpc: client}
}

var _ documentout.Service = (*RemoteService)(nil)

func (s *RemoteService) Open(ctx context.Context, path string) (documentout.Handle, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	resp, err := client.Open(ctx, &documentrpc.OpenRequest{Path: path})
	if err != nil {
		return nil, fmt.Errorf("remote open: %w", err)
	}
	return &remoteHandle{
		rpc:      client,
		handleID: resp.HandleID,
		title:    resp.Title,
		titled:   resp.HasTitle,
		pages:    int(resp.PageCount),
	}, nil
}

// Close stops the plugin process.
func (s *RemoteService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Kill()
		s.client = nil
		s.rpc = nil
	}
	return nil
}

func (s *RemoteService) connect() (documentrpc.DocumentServiceClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rpc != nil {
		return s.rpc, nil
	}
	if s.binary == "" {
		return nil, fmt.Errorf("%w: document service plugin path is empty", apperrors.ErrInvalidInput)
	}
	cmd := exec.Command(s.binary)
	cmd.Env = append(os.Environ(), ValidateEnv+"="+s.validate)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  documentrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          documentrpc.PluginMap(nil),
		Cmd:              cmd,
		StartTimeout:     defaultStartTimeout,
		Logger:           s.logger.Named("plugin"),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start document service: %w", err)
	}
	raw, err := rpcClient.Dispense(documentrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense document service: %w", err)
	}
	typed, ok := raw.(documentrpc.DocumentServiceClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("document service rpc client type mismatch")
	}
	s.client = client
	s.rpc = typed
	return typed, nil
}

type remoteHandle struct {
	rpc      documentrpc.DocumentServiceClient
	handleID string
	title    string
	titled   bool
	pages    int

	mu     sync.Mutex
	closed bool
}

func (h *remoteHandle) Title() (string, bool) {
	return h.title, h.titled
}

func (h *remoteHandle) PageCount() int {
	return h.pages
}

func (h *remoteHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *remoteHandle) PageSize(page int) (float64, float64, error) {
	if h.isClosed() {
		return 0, 0, apperrors.ErrClosed
	}
	resp, err := h.rpc.PageSize(context.Background(), &documentrpc.PageRequest{HandleID: h.handleID, Page: int32(page)})
	if err != nil {
		return 0, 0, err
	}
	return resp.Width, resp.Height, nil
}

func (h *remoteHandle) RenderPage(ctx context.Context, page, width, height int) (*image.Gray, error) {
	if h.isClosed() {
		return nil, apperrors.ErrClosed
	}
	resp, err := h.rpc.RenderPage(ctx, &documentrpc.RenderPageRequest{
		HandleID: h.handleID,
		Page:     int32(page),
		Width:    int32(width),
		Height:   int32(height),
	})
	if err != nil {
		return nil, err
	}
	return documentrpc.DecodeGray(resp)
}

func (h *remoteHandle) PageText(ctx context.Context, page int) (string, error) {
	if h.isClosed() {
		return "", apperrors.ErrClosed
	}
	resp, err := h.rpc.PageText(ctx, &documentrpc.PageRequest{HandleID: h.handleID, Page: int32(page)})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (h *remoteHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return h.rpc.CloseDocument(ctx, &documentrpc.CloseDocumentRequest{HandleID: h.handleID})
}
