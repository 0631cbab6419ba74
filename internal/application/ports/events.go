package ports

// Canales de eventos en tiempo real.
const (
	ChannelDocuments = "documents"
	ChannelApprovals = "approvals"
	ChannelDatasets  = "datasets"
	ChannelTenant    = "tenant"
)

// EventPublisher difunde eventos a conexiones en tiempo real. Es fire-and-forget:
// los fallos se registran y nunca se propagan al llamante.
type EventPublisher interface {
	PublishToTenant(tenantID int64, channel string, data any)
	PublishToUser(tenantID, userID int64, channel string, data any)
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

func (NopPublisher) PublishToTenant(int64, string, any)      {}
func (NopPublisher) PublishToUser(int64, int64, string, any) {}
