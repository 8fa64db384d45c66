// Package keycloak implements sso.Provider against a Keycloak realm.
//
// The client is configured from the adapter file that the Keycloak admin
// console exports for a confidential client:
//
//	{
//	  "auth-server-url": "https://sso.example.com",
//	  "realm": "acme",
//	  "resource": "my-service",
//	  "credentials": {"secret": "..."}
//	}
//
// Realm endpoints and signing keys are found through OpenID Connect
// discovery at {auth-server-url}/realms/{realm}.
//
// Usage:
//
//	cfg, err := keycloak.LoadAdapterConfig("keycloak.json")
//	if err != nil {
//		return err
//	}
//	provider, err := keycloak.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	flow := sso.NewSessionFlow(provider, users.Lookup, sso.DefaultConfig())
package keycloak
