package analysis

// apolloClientBuiltinsURI is the virtual file every AnalysisHost pre-
// registers its schema under, so client-only directives never show up as
// "unknown directive" in diagnostics or validation. Grounded on
// original_source/crates/ide/src/lib.rs's load_schemas_from_config, which
// always adds this file first via include_str! before any project schema.
const apolloClientBuiltinsURI = "apollo_client_builtins.graphql"

// apolloClientBuiltinsSDL is the directive set the Apollo Client ecosystem
// layers on top of a server's schema: local-only fields, the @export/
// @connection cache directives, @nonreactive render-skip, and the newer
// @defer/@unmask incremental-delivery directives. None of these are
// declared by a real GraphQL server, so without this file every executable
// document using them would fail schema validation.
const apolloClientBuiltinsSDL = `
directive @client(always: Boolean) on FIELD | FRAGMENT_DEFINITION | INLINE_FRAGMENT
directive @export(as: String!) on FIELD
directive @connection(key: String!, filter: [String!]) on FIELD
directive @nonreactive on FIELD | FRAGMENT_SPREAD
directive @unmask on FRAGMENT_SPREAD
directive @defer(label: String, if: Boolean! = true) on FRAGMENT_SPREAD | INLINE_FRAGMENT
`
