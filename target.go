package prewarm

import "strings"

// WarmRequest is the per-node request that warms one edge location.
//
// WarmRequest is derived fresh for every dispatch and never cached.
type WarmRequest struct {
	// Node is the edge-node identifier the request targets.
	Node string

	// TargetURL is the direct-to-edge URL,
	// http://{distributionID}.{node}.cloudfront.net{resourcePath}.
	TargetURL string

	// Host is the distribution's public hostname, sent as the Host header so
	// the edge routes the request to the right distribution.
	Host string
}

// BuildWarmRequest builds the direct-to-edge request for one node.
//
// BuildWarmRequest is pure and does not validate its inputs: resourcePath is
// expected to begin with "/", and malformed input simply produces a URL the
// HTTP client rejects later.
//
// Example:
//
//	req := prewarm.BuildWarmRequest("IAD89-C1", "d111111abcdef8", "d111111abcdef8.cloudfront.net", "/img/logo.png")
//	// req.TargetURL == "http://d111111abcdef8.IAD89-C1.cloudfront.net/img/logo.png"
//	// req.Host      == "d111111abcdef8.cloudfront.net"
func BuildWarmRequest(node, distributionID, distributionHostname, resourcePath string) WarmRequest {
	return WarmRequest{
		Node:      node,
		TargetURL: "http://" + distributionID + "." + node + ".cloudfront.net" + resourcePath,
		Host:      distributionHostname,
	}
}

// DistributionID returns the distribution identifier encoded in a CloudFront
// hostname: everything before the first ".". A hostname without a "." is
// returned unchanged.
func DistributionID(distributionHostname string) string {
	id, _, _ := strings.Cut(distributionHostname, ".")
	return id
}
