package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveClientIP(t *testing.T) {
	testCases := []struct {
		name     string
		headers  map[string]string
		expected string
		resolved bool
	}{
		{
			name:     "X-Forwarded-For single address",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.7"},
			expected: "203.0.113.7",
			resolved: true,
		},
		{
			name:     "X-Forwarded-For takes leftmost of chain",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1, 10.0.0.2"},
			expected: "203.0.113.7",
			resolved: true,
		},
		{
			name:     "X-Forwarded-For with whitespace",
			headers:  map[string]string{"X-Forwarded-For": "  203.0.113.7 , 10.0.0.1"},
			expected: "203.0.113.7",
			resolved: true,
		},
		{
			name: "Header preference order",
			headers: map[string]string{
				"X-Real-IP":   "198.51.100.9",
				"X-Client-IP": "203.0.113.7",
			},
			expected: "203.0.113.7",
			resolved: true,
		},
		{
			name: "Invalid primary falls through to next header",
			headers: map[string]string{
				"X-Forwarded-For": "not-an-address",
				"X-Real-IP":       "198.51.100.9",
			},
			expected: "198.51.100.9",
			resolved: true,
		},
		{
			name: "Octet out of range is rejected",
			headers: map[string]string{
				"X-Forwarded-For": "999.0.113.7",
				"CF-Connecting-IP": "203.0.113.7",
			},
			expected: "203.0.113.7",
			resolved: true,
		},
		{
			name:     "IPv6 address",
			headers:  map[string]string{"X-Forwarded-For": "2001:db8::beef"},
			expected: "2001:db8::beef",
			resolved: true,
		},
		{
			name:     "Vendor header alone",
			headers:  map[string]string{"Fastly-Client-IP": "198.51.100.12"},
			expected: "198.51.100.12",
			resolved: true,
		},
		{
			name:     "No headers",
			headers:  map[string]string{},
			expected: UnknownClient,
			resolved: false,
		},
		{
			name:     "Only garbage",
			headers:  map[string]string{"X-Forwarded-For": "abc", "X-Real-IP": ""},
			expected: UnknownClient,
			resolved: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			for name, value := range tc.headers {
				header.Set(name, value)
			}

			ip, resolved := ResolveClientIP(header)
			assert.Equal(t, tc.expected, ip)
			assert.Equal(t, tc.resolved, resolved)
		})
	}
}

func TestClientIPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ClientIPMiddleware())

	var seen string
	router.GET("/test", func(c *gin.Context) {
		seen = GetClientIP(c)
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "203.0.113.7", seen)
}

func TestGetClientIPWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, UnknownClient, GetClientIP(c))
}
