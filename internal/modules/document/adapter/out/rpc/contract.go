package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey        = "documents"
	serviceName         = "docshelf.document.v1.DocumentService"
	jsonCodecName       = "json"
	methodOpen          = "/" + serviceName + "/Open"
	methodPageSize      = "/" + serviceName + "/PageSize"
	methodRenderPage    = "/" + serviceName + "/RenderPage"
	methodPageText      = "/" + serviceName + "/PageText"
	methodCloseDocument = "/" + serviceName + "/CloseDocument"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "DOCSHELF_DOCUMENT_SERVICE",
	MagicCookieValue: "docshelf",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type OpenRequest struct {
	Path string `json:"path"`
}

type OpenResponse struct {
	HandleID  string `json:"handle_id"`
	Title     string `json:"title"`
	HasTitle  bool   `json:"has_title"`
	PageCount int32  `json:"page_count"`
}

type PageRequest struct {
	HandleID string `json:"handle_id"`
	Page     int32  `json:"page"`
}

type PageSizeResponse struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type RenderPageRequest struct {
	HandleID string `json:"handle_id"`
	Page     int32  `json:"page"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
}

// RenderPageResponse carries 8-bit gray pixels, row-major, Width per row.
type RenderPageResponse struct {
	Width  int32  `json:"width"`
	Height int32  `json:"height"`
	Pix    []byte `json:"pix"`
}

type PageTextResponse struct {
	Text string `json:"text"`
}

type CloseDocumentRequest struct {
	HandleID string `json:"handle_id"`
}

type DocumentServiceServer interface {
	Open(ctx context.Context, in *OpenRequest) (*OpenResponse, error)
	PageSize(ctx context.Context, in *PageRequest) (*PageSizeResponse, error)
	RenderPage(ctx context.Context, in *RenderPageRequest) (*RenderPageResponse, error)
	PageText(ctx context.Context, in *PageRequest) (*PageTextResponse, error)
	CloseDocument(ctx context.Context, in *CloseDocumentRequest) (*Empty, error)
}

type DocumentServiceClient interface {
	Open(ctx context.Context, in *OpenRequest) (*OpenResponse, error)
	PageSize(ctx context.Context, in *PageRequest) (*PageSizeResponse, error)
	RenderPage(ctx context.Context, in *RenderPageRequest) (*RenderPageResponse, error)
	PageText(ctx context.Context, in *PageRequest) (*PageTextResponse, error)
	CloseDocument(ctx context.Context, in *CloseDocumentRequest) error
}

type documentServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewDocumentServiceClient(conn grpc.ClientConnInterface) DocumentServiceClient {
	return &documentServiceClient{conn: conn}
}

func (c *documentServiceClient) Open(ctx context.Context, in *OpenRequest) (*OpenResponse, error) {
	out := &OpenResponse{}
	if err := c.conn.Invoke(ctx, methodOpen, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, FromStatus(err)
	}
	return out, nil
}

func (c *documentServiceClient) PageSize(ctx context.Context, in *PageRequest) (*PageSizeResponse, error) {
	out := &PageSizeResponse{}
	if err := c.conn.Invoke(ctx, methodPageSize, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, FromStatus(err)
	}
	return out, nil
}

func (c *documentServiceClient) RenderPage(ctx context.Context, in *RenderPageRequest) (*RenderPageResponse, error) {
	out := &RenderPageResponse{}
	if err := c.conn.Invoke(ctx, methodRenderPage, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, FromStatus(err)
	}
	return out, nil
}

func (c *documentServiceClient) PageText(ctx context.Context, in *PageRequest) (*PageTextResponse, error) {
	out := &PageTextResponse{}
	if err := c.conn.Invoke(ctx, methodPageText, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, FromStatus(err)
	}
	return out, nil
}

func (c *documentServiceClient) CloseDocument(ctx context.Context, in *CloseDocumentRequest) error {
	if err := c.conn.Invoke(ctx, methodCloseDocument, in, &Empty{}, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return FromStatus(err)
	}
	return nil
}

func unary[Req, Resp any](name, fullMethod string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type")
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterDocumentServiceServer(server grpc.ServiceRegistrar, impl DocumentServiceServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*DocumentServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("Open", methodOpen, impl.Open),
			unary("PageSize", methodPageSize, impl.PageSize),
			unary("RenderPage", methodRenderPage, impl.RenderPage),
			unary("PageText", methodPageText, impl.PageText),
			unary("CloseDocument", methodCloseDocument, impl.CloseDocument),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "docshelf/document/v1/document_service.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl DocumentServiceServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterDocumentServiceServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewDocumentServiceClient(conn), nil
}

func PluginMap(impl DocumentServiceServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
