package stomp

// DefaultAcceptVersion is the version list offered in CONNECT.
const DefaultAcceptVersion = "1.0,1.1,2.0"

// Connect builds the handshake frame. It carries accept-version and nothing else.
func Connect(acceptVersion string) Frame {
	if acceptVersion == "" {
		acceptVersion = DefaultAcceptVersion
	}
	return Frame{
		Command: CommandConnect,
		Headers: []Header{{Key: HeaderAcceptVersion, Value: acceptVersion}},
	}
}

// Subscribe builds a SUBSCRIBE frame.
func Subscribe(destination, id, ack string) Frame {
	return Frame{
		Command: CommandSubscribe,
		Headers: []Header{
			{Key: HeaderID, Value: id},
			{Key: HeaderDestination, Value: destination},
			{Key: HeaderAck, Value: ack},
		},
	}
}

// Disconnect builds a DISCONNECT frame.
func Disconnect() Frame {
	return Frame{Command: CommandDisconnect}
}
