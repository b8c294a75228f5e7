package psgw

// Production gateway entry points, tried in fixed order. The second host is
// a warm standby reached only after the attempt budget on the first is
// exhausted.
var DefaultEndpoints = []string{
	"https://gw1.paymentsensegateway.com:4430/",
	"https://gw2.paymentsensegateway.com:4430/",
}

// SOAP actions understood by the gateway
const (
	actionCardDetails  = "https://www.thepaymentgateway.net/CardDetailsTransaction"
	actionThreeDSecure = "https://www.thepaymentgateway.net/ThreeDSecureAuthentication"
	actionCrossRef     = "https://www.thepaymentgateway.net/CrossReferenceTransaction"
	actionEntryPoints  = "https://www.thepaymentgateway.net/GetGatewayEntryPoints"
)
