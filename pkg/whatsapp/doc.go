// Package whatsapp sends member notifications over the Twilio WhatsApp API.
//
// Recipients are Indian mobile numbers in whatever form staff typed them;
// NormalizeIndianPhone turns them into E.164 before sending. Outbound calls
// pass through a token bucket so bulk reminder runs stay within the Twilio
// sender limits.
package whatsapp
