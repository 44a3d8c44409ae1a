package main

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"

	"github.com/BOHARRY/courtDataAPI-sub002/interfaces/http/rest/middleware"
)

func TestForwardAuthorizerIdentity(t *testing.T) {
	t.Run("uses the authorizer subject", func(t *testing.T) {
		req := events.APIGatewayV2HTTPRequest{
			Headers: map[string]string{"x-user-id": "spoofed"},
			RequestContext: events.APIGatewayV2HTTPRequestContext{
				Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
					JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
						Claims: map[string]string{"sub": "user-1"},
					},
				},
			},
		}

		forwardAuthorizerIdentity(&req)

		assert.Equal(t, "user-1", req.Headers[middleware.HeaderUserID])
		assert.Equal(t, "true", req.Headers[middleware.HeaderGatewayAuthorized])
		assert.NotContains(t, req.Headers, "x-user-id")
	})

	t.Run("strips client headers without an authorizer", func(t *testing.T) {
		req := events.APIGatewayV2HTTPRequest{
			Headers: map[string]string{
				"X-API-Gateway-Authorized": "true",
				"X-User-ID":                "spoofed",
			},
		}

		forwardAuthorizerIdentity(&req)

		assert.Empty(t, req.Headers)
	})
}
