package middlewares

// CtxRequestID is the gin context key the request id lives under; handlers read the same key.
const CtxRequestID = "request_id"
