/*
Package todosdk is the Go client for the todoauth GraphQL service.

# SDKClient vs Session

SDKClient holds the transport: base URL, an *http.Client and its cookie jar.
The refresh token only ever lives in that jar as the HttpOnly refreshToken
cookie; application code never sees it.

Session holds the short lived access token and attaches it to every call as
the x-access-token header:

	client, err := todosdk.NewSDKClient("http://localhost:3000")
	session := client.NewSession()

	if err := session.Login(ctx, "sally", "123"); err != nil {
		// *todosdk.GraphQLErrors with code UNAUTHENTICATED on bad credentials
	}

	todos, err := session.Todos(ctx)

# Refresh and retry

When a call comes back with HTTP 401 the Session exchanges the refresh cookie
for a new access token and replays the call once. Concurrent 401s share a
single refresh. If the refresh yields no token the session is over:
ErrSessionExpired is returned and the stored access token is cleared. Any
other failure, including a second 401 after the replay, is returned as is.

Login and Logout never trigger a refresh.
*/
package todosdk
