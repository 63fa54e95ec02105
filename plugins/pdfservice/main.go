package main

import (
	"os"

	"github.com/hashicorp/go-plugin"

	documentadapter "docshelf/internal/modules/document/adapter/out"
	documentrpc "docshelf/internal/modules/document/adapter/out/rpc"
	"docshelf/internal/platform/id"
	"docshelf/internal/platform/logging"
)

func main() {
	logger := logging.New(logging.Options{Level: os.Getenv("DOCSHELF_LOG_LEVEL"), Output: os.Stderr, JSON: true}).Named("pdfservice")
	server := documentrpc.NewServer(documentadapter.NewPDFService(os.Getenv(documentadapter.ValidateEnv), logger), id.UUID{})
	defer server.Shutdown()

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: documentrpc.HandshakeConfig,
		Plugins:         documentrpc.PluginMap(server),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
}
