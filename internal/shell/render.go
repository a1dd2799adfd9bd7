package shell

import (
	"fmt"

	"MarketSim/internal/catalog"
)

const (
	ansiReset = "\u001B[0m"
	ansiGreen = "\u001B[32m"
	ansiRed   = "\u001B[31m"
	ansiBlue  = "\u001B[34m"
)

const (
	msgPurchaseSuccess   = "The purchase was successful."
	msgPurchaseFail      = "The purchase was not made. Please check the entered 'id'."
	msgNotEnoughMoney    = "The user does not have enough money to make this purchase."
	msgUserIDPrompt      = "Enter user id: "
	msgProductIDPrompt   = "Enter product id: "
	msgNonexistentItem   = "Menu item with entered number was not found."
	msgInvalidItem       = "Use only digits for entry."
	msgExit              = "Program execution completed."
	msgNoPurchases       = "No purchases found."
	msgNoBuyers          = "No buyers found."
	msgUnexpectedFailure = "The purchase failed unexpectedly."
)

const menu = `----------------------------------
               MENU

1. Display list of all users
2. Display list of all products
3. Buy product
4. Display list of user products
5. Display list of users that bought product.
0. Exit.
----------------------------------
Select option:`

func formatUser(u catalog.User) string {
	return fmt.Sprintf("Id: %d | First name: %s | Last name: %s | Money: %d",
		u.ID, u.FirstName, u.LastName, u.Balance)
}

func formatProduct(p catalog.Product) string {
	return fmt.Sprintf("Id: %d | Name: %s | Price: %d", p.ID, p.Name, p.Price)
}

func (s *Shell) success(msg string) { s.colored(ansiGreen, msg) }
func (s *Shell) fail(msg string)    { s.colored(ansiRed, msg) }
func (s *Shell) info(msg string)    { s.colored(ansiBlue, msg) }

func (s *Shell) colored(color, msg string) {
	if s.NoColor {
		fmt.Fprintln(s.Out, msg)
		return
	}
	fmt.Fprintln(s.Out, color+msg+ansiReset)
}

func (s *Shell) plain(msg string) {
	fmt.Fprintln(s.Out, msg)
}
