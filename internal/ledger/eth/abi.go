package eth

// contractABI is the subset of the ticketing contract this service talks to.
// events(id) is the public getter of the events mapping; a zero creator means
// the id was never assigned.
const contractABI = `[
  {"type":"function","name":"events","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[
     {"name":"creator","type":"address"},
     {"name":"ticketPrice","type":"uint256"},
     {"name":"metadataURI","type":"string"},
     {"name":"maxTickets","type":"uint256"},
     {"name":"ticketsSold","type":"uint256"}]},
  {"type":"function","name":"getAllEventIds","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"ticketCounter","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"tokenEventId","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"createEvent","stateMutability":"nonpayable",
   "inputs":[
     {"name":"metadataURI","type":"string"},
     {"name":"ticketPrice","type":"uint256"},
     {"name":"maxTickets","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"EventCreated","anonymous":false,
   "inputs":[
     {"name":"eventId","type":"uint256","indexed":true},
     {"name":"creator","type":"address","indexed":true}]}
]`

const (
	methodEvents       = "events"
	methodAllEventIDs  = "getAllEventIds"
	methodTicketCount  = "ticketCounter"
	methodOwnerOf      = "ownerOf"
	methodTokenEventID = "tokenEventId"
	methodCreateEvent  = "createEvent"
	logEventCreated    = "EventCreated"
)
