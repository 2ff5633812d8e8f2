// Command clinicctl runs maintenance tasks against the clinic ledger database.
package main

func main() {
	Execute()
}
