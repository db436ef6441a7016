package infra

import (
	"path/filepath"
	"time"

	"github.com/fystack/payment-indexer/pkg/common/config"
	"github.com/fystack/payment-indexer/pkg/common/logger"
	"github.com/nats-io/nats.go"
)

func GetNATSConnection(natsConfig config.NatsConfig, environment config.Env) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed!")
		}),
		nats.ErrorHandler(NatsErrHandler),
	}

	natsURL := natsConfig.URL
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}
	if environment != config.ProdEnv {
		return nats.Connect(natsURL, opts...)
	}

	clientCert := natsConfig.TLS.ClientCert
	clientKey := natsConfig.TLS.ClientKey
	caCert := natsConfig.TLS.CACert

	if clientCert == "" {
		clientCert = filepath.Join(".", "certs", "client-cert.pem")
	}
	if clientKey == "" {
		clientKey = filepath.Join(".", "certs", "client-key.pem")
	}
	if caCert == "" {
		caCert = filepath.Join(".", "certs", "rootCA.pem")
	}

	opts = append(opts,
		nats.ClientCert(clientCert, clientKey),
		nats.RootCAs(caCert),
		nats.UserInfo(natsConfig.Username, natsConfig.Password),
	)
	return nats.Connect(natsURL, opts...)
}

func NatsErrHandler(nc *nats.Conn, sub *nats.Subscription, natsErr error) {
	logger.Error("NATS Error", "err", natsErr)
	if natsErr == nats.ErrSlowConsumer && sub != nil {
		pendingMsgs, _, err := sub.Pending()
		if err != nil {
			logger.Error("Error getting pending messages", "err", err)
			return
		}

		logger.Error("Falling behind with pending messages on subject", "pending", pendingMsgs, "subject", sub.Subject)
	}
}
