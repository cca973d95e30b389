package orders

type Status string

const (
	StatusPendiente  Status = "pendiente"
	StatusAceptada   Status = "aceptada"
	StatusRechazada  Status = "rechazada"
	StatusListo      Status = "listo"
	StatusFinalizada Status = "finalizada"
	StatusCancelada  Status = "cancelada"
)

var validNext = map[Status]map[Status]bool{
	StatusPendiente:  {StatusAceptada: true, StatusRechazada: true, StatusCancelada: true},
	StatusAceptada:   {StatusListo: true, StatusCancelada: true},
	StatusListo:      {StatusFinalizada: true, StatusCancelada: true},
	StatusRechazada:  {},
	StatusFinalizada: {},
	StatusCancelada:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal: sin transiciones salientes.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0 && s != ""
}
